package prima

import (
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRequest(t *testing.T, raw []byte) (Operation, map[string]string) {
	t.Helper()
	var env requestEnvelope
	require.NoError(t, xml.Unmarshal(raw, &env))
	require.Len(t, env.Requests, 1)

	params := make(map[string]string, len(env.Requests[0].Params))
	for _, p := range env.Requests[0].Params {
		params[p.Name] = p.Value
	}
	return env.Requests[0].Name, params
}

func TestBuildLoginRequest(t *testing.T) {
	raw, err := BuildLoginRequest(`ad"min`, `p<a>ss&'word`)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(raw), `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.NotContains(t, string(raw), `p<a>ss`)
	assert.NotContains(t, string(raw), `ad"min`)

	op, params := decodeRequest(t, raw)
	assert.Equal(t, OpLoginUser, op)
	assert.Equal(t, `ad"min`, params["UsrName"])
	assert.Equal(t, `p<a>ss&'word`, params["UsrPassword"])
}

func TestBuildLookupRequest(t *testing.T) {
	raw, err := BuildLookupRequest(`12 Oak St "Rear"`)
	require.NoError(t, err)

	op, params := decodeRequest(t, raw)
	assert.Equal(t, OpReadUsers, op)
	assert.Equal(t, map[string]string{
		"Range":        "All-preview",
		"Filter":       `12 Oak St "Rear"`,
		"FilterFields": "UsrAddress",
	}, params)
}

func TestBuildUpsertRequest(t *testing.T) {
	raw, err := BuildUpsertRequest("Jane", "Doe", "A1B2C3")
	require.NoError(t, err)

	op, params := decodeRequest(t, raw)
	assert.Equal(t, OpAddOrUpdateUser, op)
	assert.Equal(t, map[string]string{
		"KeyColumns":  "UsrName",
		"UsrName":     "Jane",
		"UsrLastName": "Doe",
		"UsrCards":    "A1B2C3",
	}, params)
}

func TestParseResponseMalformed(t *testing.T) {
	for _, body := range []string{"", "not xml at all", "<response status=\"0\"><data>"} {
		_, err := ParseResponse(OpReadUsers, []byte(body))
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr), "body %q", body)
		assert.Equal(t, "Invalid XML format.", err.Error())
	}
}

func TestParseResponseStatus(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"success", `<response status="0"/>`, 0, ""},
		{"missing status", `<response><data/></response>`, statusMissing, ""},
		{"non numeric status", `<response status="abc"/>`, statusMissing, ""},
		{"with message", `<response status="999" message=" Busy "/>`, 999, "Busy"},
		{"wrapped", `<responses><response status="15"/></responses>`, 15, ""},
		{"wrapped without response", `<responses/>`, statusMissing, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponse(OpAddOrUpdateUser, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, OpAddOrUpdateUser, resp.Payload.Operation())
		})
	}
}

func TestParseLoginResponse(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<responses>
  <response status="0">
    <data><SessionID> 5f2a9c </SessionID></data>
  </response>
</responses>`

	resp, err := ParseResponse(OpLoginUser, []byte(body))
	require.NoError(t, err)
	require.True(t, resp.OK())

	login, ok := resp.Payload.(LoginPayload)
	require.True(t, ok)
	assert.Equal(t, "5f2a9c", login.SessionID)
}

func TestParseReadUsersResponse(t *testing.T) {
	t.Run("attribute users", func(t *testing.T) {
		body := `<response status="0"><data>
			<user UsrID="17" UsrName="Jane" UsrLastName="Doe" UsrAddress="12 Oak St" UsrCards="0001, 0002"/>
		</data></response>`

		resp, err := ParseResponse(OpReadUsers, []byte(body))
		require.NoError(t, err)
		users := resp.Payload.(ReadUsersPayload).Users
		require.Len(t, users, 1)
		assert.Equal(t, ControllerUser{ID: "17", FirstName: "Jane", LastName: "Doe", Address: "12 Oak St", Cards: "0001, 0002"}, users[0])
	})

	t.Run("element users", func(t *testing.T) {
		body := `<responses><response status="0"><data><Users>
			<User><UsrID>1</UsrID><UsrName>Ann</UsrName><UsrLastName>Lee</UsrLastName><UsrAddress>1 Elm</UsrAddress><UsrCards/></User>
			<User><UsrID>2</UsrID><UsrName>Bob</UsrName><UsrLastName>Ray</UsrLastName><UsrAddress>2 Elm</UsrAddress><UsrCards>99</UsrCards></User>
		</Users></data></response></responses>`

		resp, err := ParseResponse(OpReadUsers, []byte(body))
		require.NoError(t, err)
		users := resp.Payload.(ReadUsersPayload).Users
		require.Len(t, users, 2)
		assert.Equal(t, "Ann", users[0].FirstName)
		assert.Equal(t, "", users[0].Cards)
		assert.Equal(t, "2 Elm", users[1].Address)
		assert.Equal(t, "99", users[1].Cards)
	})

	t.Run("no users", func(t *testing.T) {
		resp, err := ParseResponse(OpReadUsers, []byte(`<response status="0"><data/></response>`))
		require.NoError(t, err)
		assert.Empty(t, resp.Payload.(ReadUsersPayload).Users)
	})

	t.Run("latin1 body", func(t *testing.T) {
		body := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><response status=\"0\"><data><User UsrName=\"Jos\xe9\"/></data></response>"
		resp, err := ParseResponse(OpReadUsers, []byte(body))
		require.NoError(t, err)
		assert.Equal(t, "José", resp.Payload.(ReadUsersPayload).Users[0].FirstName)
	})
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`<response status="5" message="ignored"/>`, "Error 5: Wrong user name or password."},
		{`<response status="8"/>`, "Error 8: Match failed. Check name mapping."},
		{`<response status="15"/>`, "Error 15: RFID already in use elsewhere."},
		{`<response status="22"/>`, "Error 22: XML Integration license needed."},
		{`<response status="999" message="Controller busy"/>`, "Controller busy"},
		{`<response status="999"/>`, "Error 999"},
	}

	for _, tt := range tests {
		resp, err := ParseResponse(OpAddOrUpdateUser, []byte(tt.body))
		require.NoError(t, err)
		require.False(t, resp.OK())

		statusErr := newStatusError(resp)
		assert.Equal(t, resp.Status, statusErr.Status)
		assert.Equal(t, tt.want, statusErr.Error())
	}
}
