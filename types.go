package vesync

import "encoding/json"

// successCode is the only vendor code that means success.
const successCode = 0

// respEnvelope is the outer shape of every vendor response.
type respEnvelope struct {
	Code   int64           `json:"code"`
	Msg    string          `json:"msg"`
	Result json.RawMessage `json:"result"`
}

// baseRequest carries the transport metadata the vendor expects on every
// call, authenticated or not.
type baseRequest struct {
	AcceptLanguage string `json:"acceptLanguage"`
	AppVersion     string `json:"appVersion"`
	PhoneBrand     string `json:"phoneBrand"`
	PhoneOS        string `json:"phoneOS"`
	TimeZone       string `json:"timeZone"`
	TraceID        string `json:"traceId"`
}

// authedRequest extends baseRequest with the cached session pair.
type authedRequest struct {
	baseRequest
	AccountID string `json:"accountID"`
	Token     string `json:"token"`
}

// loginRequest is the body of POST /cloud/v1/user/login. Exactly one of
// Email or Account is set; some server revisions expect one field name,
// some the other.
type loginRequest struct {
	baseRequest
	Email      string `json:"email,omitempty"`
	Account    string `json:"account,omitempty"`
	Password   string `json:"password"`
	DevToken   string `json:"devToken"`
	UserType   string `json:"userType"`
	Method     string `json:"method"`
	ClientType string `json:"clientType"`
	TerminalID string `json:"terminalId"`
}

// loginResult is the result payload of a successful login.
type loginResult struct {
	AccountID   string `json:"accountID"`
	Token       string `json:"token"`
	CountryCode string `json:"countryCode"`
	Nickname    string `json:"nickName"`
}

// deviceListRequest is the body of POST /cloud/v2/deviceManaged/devices.
type deviceListRequest struct {
	authedRequest
	Method   string `json:"method"`
	PageNo   string `json:"pageNo"`
	PageSize string `json:"pageSize"`
}

// deviceListResult is the result payload of a discovery call.
type deviceListResult struct {
	Total int         `json:"total"`
	List  []RawDevice `json:"list"`
}

// bypassRequest is the body of a bypassV2 call, the vendor's generic device
// read/write envelope. Status reads and commands share it; they differ in
// HTTP verb and in the inner payload method.
type bypassRequest struct {
	authedRequest
	Method       string        `json:"method"`
	DebugMode    bool          `json:"debugMode"`
	DeviceRegion string        `json:"deviceRegion"`
	CID          string        `json:"cid"`
	ConfigModule string        `json:"configModule"`
	Payload      bypassPayload `json:"payload"`
}

// bypassPayload is the inner payload naming the target method.
type bypassPayload struct {
	Method string `json:"method"`
	Source string `json:"source"`
	Data   any    `json:"data"`
}

// bypassResult is the inner envelope the vendor nests inside the outer
// result of a bypass call.
type bypassResult struct {
	TraceID string          `json:"traceId"`
	Code    int64           `json:"code"`
	Result  json.RawMessage `json:"result"`
}
