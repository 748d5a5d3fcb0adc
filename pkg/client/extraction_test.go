package client

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/turtacn/ListSense/internal/infrastructure/monitoring/logging"
	httpapi "github.com/turtacn/ListSense/internal/interfaces/http"
	"github.com/turtacn/ListSense/internal/interfaces/http/handlers"
	"github.com/turtacn/ListSense/internal/testutil/servicetest"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

type SDKSuite struct {
	suite.Suite
	server *httptest.Server
	client *Client
	ctx    context.Context
}

func (s *SDKSuite) SetupTest() {
	svc := servicetest.New(s.T())
	log := logging.NewNopLogger()
	s.server = httptest.NewServer(httpapi.NewRouter(httpapi.RouterConfig{
		ExtractionHandler: handlers.NewExtractionHandler(svc, log),
		EntityHandler:     handlers.NewEntityHandler(svc, log),
		HealthHandler:     handlers.NewHealthHandler("test"),
		Logger:            log,
	}))
	c, err := NewClient(s.server.URL, WithRetryMax(0))
	s.Require().NoError(err)
	s.client = c
	s.ctx = context.Background()
}

func (s *SDKSuite) TearDownTest() {
	s.server.Close()
}

func airport() entity.EntityDefinition {
	return entity.EntityDefinition{
		Name:  "airport",
		Fuzzy: 0.8,
		Values: []entity.ValueDefinition{{
			Name: "SFO",
			Synonyms: []entity.SynonymDefinition{
				{Tokens: []string{"SFO"}},
				{Tokens: []string{"SF"}},
				{Tokens: []string{"San-Francisco"}},
			},
		}},
	}
}

func (s *SDKSuite) TestExtract() {
	res, err := s.client.Extract(s.ctx, []string{"AC1234", " ", "to", " ", "SF"}, airport())
	s.Require().NoError(err)
	s.Require().Len(res, 1)
	s.Equal("SFO", res[0].Value)
	s.Equal("SF", res[0].Source)
	s.Equal(10, res[0].CharStart)
	s.Equal(12, res[0].CharEnd)
	s.InDelta(1.0, res[0].Confidence, 1e-9)
}

func (s *SDKSuite) TestExtractMultipleNoMatch() {
	res, err := s.client.ExtractMultiple(s.ctx, []string{"hello"}, []entity.EntityDefinition{airport()})
	s.Require().NoError(err)
	s.Empty(res)
}

func (s *SDKSuite) TestExtractText() {
	res, err := s.client.ExtractText(s.ctx, "I flew to San-Francisco with an apple")
	s.Require().NoError(err)
	s.Require().Len(res.Entities, 2)
	s.Equal("SFO", res.Entities[0].Value)
	s.Equal(10, res.Entities[0].CharStart)
	s.Equal(23, res.Entities[0].CharEnd)
	s.Equal("Apple", res.Entities[1].Value)

	_, err = s.client.ExtractText(s.ctx, "x", "nope")
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.True(apiErr.IsNotFound())
	s.Equal("ENT_005", apiErr.Code)
	s.Equal("entity=nope", apiErr.Detail)
}

func (s *SDKSuite) TestExtractBatch() {
	res, err := s.client.ExtractBatch(s.ctx, []string{"blueberry pie", "red apple"}, "fruit")
	s.Require().NoError(err)
	s.Require().Len(res.Items, 2)
	s.Equal("Blueberry", res.Items[0].Entities[0].Value)
	s.Equal("Apple", res.Items[1].Entities[0].Value)
	s.Zero(res.Failed)
}

func (s *SDKSuite) TestSimilarity() {
	score, err := s.client.Levenshtein(s.ctx, "kitten", "sitting", false)
	s.Require().NoError(err)
	s.InDelta(4.0/7.0, score, 1e-9)

	score, err = s.client.JaroWinkler(s.ctx, "MARTHA", "marhta", false)
	s.Require().NoError(err)
	s.InDelta(0.9611, score, 1e-4)

	score, err = s.client.JaroWinkler(s.ctx, "Hello", "hello", true)
	s.Require().NoError(err)
	s.Less(score, 1.0)
}

func (s *SDKSuite) TestEntities() {
	all, err := s.client.ListEntities(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 3)

	patterns, err := s.client.ListEntities(s.ctx, entity.KindPattern)
	s.Require().NoError(err)
	s.Require().Len(patterns, 1)
	s.Equal("flight", patterns[0].Name)

	info, err := s.client.PutListEntity(s.ctx, entity.ListEntityDef{
		Name:      "color",
		Tolerance: entity.ToleranceStrict,
		Values:    []entity.ListValueDef{{Name: "Red", Synonyms: []string{"red", "crimson"}}},
	})
	s.Require().NoError(err)
	s.Equal(entity.KindList, info.Kind)
	s.NotNil(info.List)

	info, err = s.client.GetEntity(s.ctx, "color")
	s.Require().NoError(err)
	s.Equal("color", info.Name)

	_, err = s.client.PutPatternEntity(s.ctx, entity.PatternEntityDefinition{Name: "zip", Pattern: "("})
	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("ENT_002", apiErr.Code)

	s.Require().NoError(s.client.DeleteEntity(s.ctx, "color"))
	_, err = s.client.GetEntity(s.ctx, "color")
	s.Require().ErrorAs(err, &apiErr)
	s.True(apiErr.IsNotFound())

	s.Error(s.client.DeleteEntity(s.ctx, ""))
	s.NoError(s.client.Ready(s.ctx))
}

func TestSDKSuite(t *testing.T) {
	suite.Run(t, new(SDKSuite))
}

//Personal.AI order the ending
