// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bferrors "bulkforce/cli/internal/errors"
)

const loginOK = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns="urn:partner.soap.sforce.com">
  <soapenv:Body>
    <loginResponse>
      <result>
        <passwordExpired>false</passwordExpired>
        <serverUrl>https://na1-api.salesforce.com/services/Soap/u/33.0/00Dx0000000BV7z</serverUrl>
        <sessionId>00Dx0000000BV7z!AR8AQP0jITN80ESEsj5E</sessionId>
        <userId>005x0000000TWvQAAW</userId>
      </result>
    </loginResponse>
  </soapenv:Body>
</soapenv:Envelope>`

const loginFault = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:sf="urn:fault.partner.soap.sforce.com">
  <soapenv:Body>
    <soapenv:Fault>
      <faultcode>sf:INVALID_LOGIN</faultcode>
      <faultstring>INVALID_LOGIN: Invalid username, password, security token; or user locked out.</faultstring>
    </soapenv:Fault>
    <loginResponse><result><sessionId>ignored</sessionId><serverUrl>https://na1.salesforce.com/</serverUrl></result></loginResponse>
  </soapenv:Body>
</soapenv:Envelope>`

func TestParseLogin(t *testing.T) {
	res, err := ParseLogin([]byte(loginOK), "salesforce.com")
	require.NoError(t, err)

	assert.Equal(t, "na1", res.Instance)
	assert.Equal(t, "00Dx0000000BV7z!AR8AQP0jITN80ESEsj5E", res.SessionID)
	assert.Equal(t, "005x0000000TWvQAAW", res.UserID)
	assert.Equal(t, "false", res.Raw.String("password_expired"))
}

func TestParseLogin_TopLevelBody(t *testing.T) {
	body := `<Body><loginResponse><result><serverUrl>https://eu2.salesforce.com/x</serverUrl><sessionId>s</sessionId></result></loginResponse></Body>`
	res, err := ParseLogin([]byte(body), "")
	require.NoError(t, err)
	assert.Equal(t, "eu2", res.Instance)
}

func TestParseLogin_FaultAlwaysWins(t *testing.T) {
	_, err := ParseLogin([]byte(loginFault), "salesforce.com")
	require.Error(t, err)

	var fault *bferrors.SoapLoginFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "INVALID_LOGIN: Invalid username, password, security token; or user locked out.", fault.Error())
	assert.Equal(t, bferrors.SoapFault, bferrors.KindOf(err))
}

func TestParseLogin_MissingResult(t *testing.T) {
	_, err := ParseLogin([]byte(`<Envelope><Body><other/></Body></Envelope>`), "")
	assert.Error(t, err)
}

func TestParseOAuth(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?><OAuth><access_token>00D!tok</access_token><instance_url>https://eu2.salesforce.com</instance_url><token_type>Bearer</token_type></OAuth>`
	res, err := ParseOAuth([]byte(body), "salesforce.com")
	require.NoError(t, err)
	assert.Equal(t, "eu2", res.Instance)
	assert.Equal(t, "00D!tok", res.SessionID)
	assert.Equal(t, "https://eu2.salesforce.com", res.ServerURL)
}

func TestParseOAuth_Error(t *testing.T) {
	body := `<OAuth><error>invalid_grant</error><error_description>expired access/refresh token</error_description></OAuth>`
	_, err := ParseOAuth([]byte(body), "salesforce.com")

	var oe *bferrors.OAuthError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "invalid_grant", oe.Code)
	assert.Equal(t, "invalid_grant: expired access/refresh token", err.Error())
}

func TestParseJobBatch(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<jobInfo xmlns="http://www.force.com/2009/06/asyncapi/dataload">
  <id>750x0000000005LAAQ</id>
  <operation>insert</operation>
  <object>Account</object>
  <state>Open</state>
  <contentType>CSV</contentType>
</jobInfo>`
	got, err := ParseJobBatch([]byte(body))
	require.NoError(t, err)

	want := Canonical{
		"id":           "750x0000000005LAAQ",
		"operation":    "insert",
		"object":       "Account",
		"state":        "Open",
		"content_type": "CSV",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseJobBatch() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJobBatch_ServiceFault(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<error xmlns="http://www.force.com/2009/06/asyncapi/dataload">
  <exceptionCode>InvalidJob</exceptionCode>
  <exceptionMessage>Unable to find object: Acount</exceptionMessage>
</error>`
	got, err := ParseJobBatch([]byte(body))
	assert.Nil(t, got)

	var sf *bferrors.ServiceFaultError
	require.ErrorAs(t, err, &sf)
	assert.Equal(t, "InvalidJob", sf.ExceptionCode)
	assert.Equal(t, "InvalidJob: Unable to find object: Acount", err.Error())
}

func TestParseJobBatch_ResultList(t *testing.T) {
	got, err := ParseJobBatch([]byte(`<result-list xmlns="http://www.force.com/2009/06/asyncapi/dataload"><result>752a</result><result>752b</result></result-list>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"752a", "752b"}, got.Strings("result"))
}

func TestParseJobBatch_ScalarRoot(t *testing.T) {
	got, err := ParseJobBatch([]byte(`<result xmlns="http://www.force.com/2009/06/asyncapi/dataload">752000000000001</result>`))
	require.NoError(t, err)
	assert.Equal(t, Canonical{"result": "752000000000001"}, got)
	assert.Equal(t, []string{"752000000000001"}, got.Strings("result"))
}

func TestParseJobBatch_Malformed(t *testing.T) {
	_, err := ParseJobBatch([]byte("<jobInfo><id>1</jobInfo>"))
	assert.Error(t, err)

	_, err = ParseJobBatch([]byte("<batchInfo><id>751</id>"))
	assert.Error(t, err)

	_, err = ParseJobBatch([]byte(""))
	assert.Error(t, err)
}

func TestNormalizeCSV(t *testing.T) {
	assert.Equal(t, "\"Id\",\"Name\"\n\"001\",\"Acme\"\n", NormalizeCSV([]byte("\"Id\",\"Name\"\n   \"001\",\"Acme\"\n")))
	assert.Equal(t, "a\nb", NormalizeCSV([]byte("a\n\t\n  b")))
	assert.Equal(t, "a,b", NormalizeCSV([]byte("a,b")))
}

func TestInstanceFromURL(t *testing.T) {
	tests := []struct {
		url     string
		domain  string
		want    string
		wantErr bool
	}{
		{url: "https://na1.salesforce.com/services/Soap/u/33.0", want: "na1"},
		{url: "https://eu2.salesforce.com/", want: "eu2"},
		{url: "https://cs14-api.salesforce.com/services", want: "cs14"},
		{url: "https://acme.my.salesforce.com", want: "acme.my"},
		{url: "https://na1.example.org/x", domain: "example.org", want: "na1"},
		{url: "https://na1.example.org/x", wantErr: true},
		{url: "https://salesforce.com/", wantErr: true},
		{url: "://bad", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := InstanceFromURL(tt.url, tt.domain)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
