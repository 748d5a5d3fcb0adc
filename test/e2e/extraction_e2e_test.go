package e2e_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/turtacn/ListSense/internal/interfaces/grpc/services"
	"github.com/turtacn/ListSense/pkg/client"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

func ctxT(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestE2E_HealthAndReadiness(t *testing.T) {
	resp, body := doGet(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"up"`)

	resp, body = doGet(t, "/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"redis"`)
}

func TestE2E_ExtractText_RESTAndGRPCAgree(t *testing.T) {
	ctx := ctxT(t)
	const text = "I flew to San-Francisco with an apple"

	rest, err := env.sdkClient.ExtractText(ctx, text)
	require.NoError(t, err)
	require.Len(t, rest.Entities, 2)
	assert.Equal(t, "SFO", rest.Entities[0].Value)
	assert.Equal(t, "San-Francisco", rest.Entities[0].Source)
	assert.Equal(t, 10, rest.Entities[0].CharStart)
	assert.Equal(t, 23, rest.Entities[0].CharEnd)
	assert.Equal(t, "Apple", rest.Entities[1].Value)

	var rpc client.TextResult
	require.NoError(t, env.grpcClient.Call(ctx, services.MethodExtractText, map[string]interface{}{"text": text}, &rpc))
	assert.Equal(t, rest.Entities, rpc.Entities)
}

func TestE2E_ExtractTokens(t *testing.T) {
	ctx := ctxT(t)
	def := entity.EntityDefinition{
		Name:  "airport",
		Fuzzy: 0.8,
		Values: []entity.ValueDefinition{{
			Name:     "SFO",
			Synonyms: []entity.SynonymDefinition{{Tokens: []string{"SF"}}},
		}},
	}
	res, err := env.sdkClient.Extract(ctx, []string{"AC1234", " ", "to", " ", "SF"}, def)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 10, res[0].CharStart)
	assert.Equal(t, 12, res[0].CharEnd)

	empty, err := env.sdkClient.ExtractMultiple(ctx, []string{}, []entity.EntityDefinition{def})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestE2E_ResultCache(t *testing.T) {
	ctx := ctxT(t)
	const text = "one red apple for the cache"

	first, err := env.sdkClient.ExtractText(ctx, text, "fruit")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := env.sdkClient.ExtractText(ctx, text, "fruit")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Entities, second.Entities)
	assert.NotEmpty(t, env.redis.Keys())

	// Any catalog write drops cached results.
	_, err = env.sdkClient.PutListEntity(ctx, entity.ListEntityDef{
		Name:      "e2e_color",
		Tolerance: entity.ToleranceStrict,
		Values:    []entity.ListValueDef{{Name: "Red", Synonyms: []string{"red"}}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.sdkClient.DeleteEntity(context.Background(), "e2e_color") })

	third, err := env.sdkClient.ExtractText(ctx, text, "fruit")
	require.NoError(t, err)
	assert.False(t, third.Cached)
}

func TestE2E_BatchLimits(t *testing.T) {
	ctx := ctxT(t)
	res, err := env.sdkClient.ExtractBatch(ctx, []string{"blueberry pie", "red apple"}, "fruit")
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Blueberry", res.Items[0].Entities[0].Value)
	assert.Equal(t, "Apple", res.Items[1].Entities[0].Value)

	_, err = env.sdkClient.ExtractBatch(ctx, []string{"a", "b", "c", "d"}, "fruit")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsValidation())

	err = env.grpcClient.Call(ctx, services.MethodExtractBatch, map[string]interface{}{"texts": []string{"a", "b", "c", "d"}}, nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestE2E_UnknownEntity(t *testing.T) {
	ctx := ctxT(t)
	resp, body := doPost(t, "/api/v1/extract/text", map[string]interface{}{"text": "x", "entities": []string{"nope"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	out := decodeEnvelope(t, body, nil)
	assert.False(t, out.Success)
	require.NotNil(t, out.Error)
	assert.Equal(t, "ENT_005", out.Error.Code)
	assert.NotEmpty(t, out.RequestID)

	err := env.grpcClient.Call(ctx, services.MethodGetEntity, map[string]interface{}{"name": "nope"}, nil)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestE2E_Similarity(t *testing.T) {
	ctx := ctxT(t)
	lev, err := env.sdkClient.Levenshtein(ctx, "kitten", "sitting", false)
	require.NoError(t, err)
	assert.InDelta(t, 4.0/7.0, lev, 1e-9)

	var out struct {
		Score float64 `json:"score"`
	}
	require.NoError(t, env.grpcClient.Call(ctx, services.MethodSimilarity,
		map[string]interface{}{"metric": "jaro-winkler", "a": "MARTHA", "b": "marhta", "case_sensitive": false}, &out))
	assert.InDelta(t, 0.9611, out.Score, 1e-4)

	jw, err := env.sdkClient.JaroWinkler(ctx, "Hello", "hello", true)
	require.NoError(t, err)
	assert.Less(t, jw, 1.0)
}

func TestE2E_Metrics(t *testing.T) {
	ctx := ctxT(t)
	_, err := env.sdkClient.ExtractText(ctx, "apple", "fruit")
	require.NoError(t, err)
	require.NoError(t, env.grpcClient.Call(ctx, services.MethodListEntities, map[string]interface{}{}, nil))

	resp, body := doGet(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	for _, name := range []string{"http_requests_total", "grpc_requests_total", "extractions_total", "cache_requests_total", "catalog_entities"} {
		assert.True(t, strings.Contains(text, metricsNamespace+"_"+name), name)
	}
}

//Personal.AI order the ending
