package rapport

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, s string) interface{} {
	v, err := JSONSerializer{}.Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func Test_Kind_String(t *testing.T) {
	assert.Equal(t, "message", KindMessage.String())
	assert.Equal(t, "request", KindRequest.String())
	assert.Equal(t, "response", KindResponse.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func Test_Classify(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		kind     Kind
		id       string
		hasBody  bool
		hasError bool
	}{
		{"string", `"hello"`, KindMessage, "", true, false},
		{"number", `17`, KindMessage, "", true, false},
		{"null", `null`, KindMessage, "", true, false},
		{"array", `[1,2]`, KindMessage, "", true, false},
		{"plain object", `{"a":1}`, KindMessage, "", true, false},
		{"request", `{"requestId":"r1","body":{"x":1}}`, KindRequest, "r1", true, false},
		{"request without body", `{"requestId":"r2"}`, KindRequest, "r2", false, false},
		{"response", `{"responseId":"r1","body":"ok"}`, KindResponse, "r1", true, false},
		{"response with null body", `{"responseId":"r1","body":null}`, KindResponse, "r1", true, false},
		{"error response", `{"responseId":"r1","error":"bad"}`, KindResponse, "r1", false, true},
		{"empty response", `{"responseId":"r1"}`, KindResponse, "r1", false, false},
		{"both ids", `{"responseId":"a","requestId":"b","body":1}`, KindResponse, "a", true, false},
		{"numeric id", `{"requestId":12,"body":1}`, KindRequest, "12", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Classify(decodeJSON(t, tt.json))
			assert.Equal(t, tt.kind, env.Kind)
			assert.Equal(t, tt.id, env.ID)
			assert.Equal(t, tt.hasBody, env.HasBody)
			assert.Equal(t, tt.hasError, env.HasError)
		})
	}
}

func Test_Classify_message_body_is_whole_value(t *testing.T) {
	v := decodeJSON(t, `{"a":"b"}`)
	env := Classify(v)
	assert.Equal(t, v, env.Body)
	assert.Equal(t, v, env.Value)
}

func Test_BuildRequest(t *testing.T) {
	m := BuildRequest("id1", []int{1})
	assert.Equal(t, "id1", m[FieldRequestID])
	assert.Equal(t, []int{1}, m[FieldBody])
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"requestId":"id1","body":[1]}`, string(data))
}

func Test_BuildResponse_keeps_null_body(t *testing.T) {
	data, err := json.Marshal(BuildResponse("id1", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"responseId":"id1","body":null}`, string(data))
	env := Classify(decodeJSON(t, string(data)))
	assert.True(t, env.HasBody)
}

func Test_BuildErrorResponse(t *testing.T) {
	data, err := json.Marshal(BuildErrorResponse("id1", errors.New("went wrong")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"responseId":"id1","error":"went wrong"}`, string(data))

	data, err = json.Marshal(BuildErrorResponse("id2", map[string]interface{}{"code": 7}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"responseId":"id2","error":{"code":7}}`, string(data))
}

func Test_JSONSerializer(t *testing.T) {
	var ser JSONSerializer
	v, err := ser.Decode([]byte(`{"n": 12345678901234567890}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901234567890"), v.(map[string]interface{})["n"])

	_, err = ser.Decode([]byte(`{"a":`))
	assert.Error(t, err)
	_, err = ser.Decode([]byte(`1 2`))
	assert.Error(t, err)
	_, err = ser.Decode(nil)
	assert.Error(t, err)

	data, err := ser.Encode(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}
