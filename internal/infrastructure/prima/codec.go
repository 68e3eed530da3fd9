package prima

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Operation 控制器 XML 接口的请求名称
type Operation string

const (
	OpLoginUser       Operation = "LoginUser"
	OpReadUsers       Operation = "ReadUsers"
	OpAddOrUpdateUser Operation = "AddOrUpdateUser"
)

// 请求报文结构
type (
	requestEnvelope struct {
		XMLName  xml.Name  `xml:"requests"`
		Requests []request `xml:"request"`
	}

	request struct {
		Name   Operation `xml:"name,attr"`
		Params []param   `xml:"param"`
	}

	param struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value,attr"`
	}
)

// BuildLoginRequest 构造 LoginUser 请求
func BuildLoginRequest(username, password string) ([]byte, error) {
	return encodeRequest(OpLoginUser,
		param{Name: "UsrName", Value: username},
		param{Name: "UsrPassword", Value: password},
	)
}

// BuildLookupRequest 构造按地址过滤的 ReadUsers 请求，不分页
func BuildLookupRequest(address string) ([]byte, error) {
	return encodeRequest(OpReadUsers,
		param{Name: "Range", Value: "All-preview"},
		param{Name: "Filter", Value: address},
		param{Name: "FilterFields", Value: "UsrAddress"},
	)
}

// BuildUpsertRequest 构造以姓名为键的 AddOrUpdateUser 请求
func BuildUpsertRequest(firstName, lastName, card string) ([]byte, error) {
	return encodeRequest(OpAddOrUpdateUser,
		param{Name: "KeyColumns", Value: "UsrName"},
		param{Name: "UsrName", Value: firstName},
		param{Name: "UsrLastName", Value: lastName},
		param{Name: "UsrCards", Value: card},
	)
}

// encodeRequest 属性值由 encoding/xml 转义
func encodeRequest(op Operation, params ...param) ([]byte, error) {
	env := requestEnvelope{Requests: []request{{Name: op, Params: params}}}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("编码 %s 请求失败: %w", op, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ControllerUser 控制器中的用户记录
type ControllerUser struct {
	ID        string `json:"usr_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Cards     string `json:"cards"`
}

// Payload 按请求类型区分的响应数据
type Payload interface {
	Operation() Operation
}

// LoginPayload LoginUser 的响应数据
type LoginPayload struct {
	SessionID string
}

func (LoginPayload) Operation() Operation { return OpLoginUser }

// ReadUsersPayload ReadUsers 的响应数据
type ReadUsersPayload struct {
	Users []ControllerUser
}

func (ReadUsersPayload) Operation() Operation { return OpReadUsers }

// UpsertPayload AddOrUpdateUser 没有需要读取的数据
type UpsertPayload struct{}

func (UpsertPayload) Operation() Operation { return OpAddOrUpdateUser }

// Response 解析后的控制器响应
type Response struct {
	Status  int
	Message string
	Payload Payload
}

// OK 状态为 0
func (r *Response) OK() bool { return r.Status == StatusOK }

// 响应报文结构。根元素可能是 response，也可能是包含 response 的 responses
type (
	xmlDocument struct {
		XMLName   xml.Name
		Status    *string       `xml:"status,attr"`
		Message   string        `xml:"message,attr"`
		Data      xmlData       `xml:"data"`
		Responses []xmlResponse `xml:"response"`
	}

	xmlResponse struct {
		Status  *string `xml:"status,attr"`
		Message string  `xml:"message,attr"`
		Data    xmlData `xml:"data"`
	}

	xmlData struct {
		SessionID  string    `xml:"SessionID"`
		Users      []xmlUser `xml:"User"`
		LowerUsers []xmlUser `xml:"user"`
		ListUsers  []xmlUser `xml:"Users>User"`
	}

	// 固件版本不同，字段可能是属性也可能是子元素
	xmlUser struct {
		IDAttr       string `xml:"UsrID,attr"`
		NameAttr     string `xml:"UsrName,attr"`
		LastNameAttr string `xml:"UsrLastName,attr"`
		AddressAttr  string `xml:"UsrAddress,attr"`
		CardsAttr    string `xml:"UsrCards,attr"`
		ID           string `xml:"UsrID"`
		Name         string `xml:"UsrName"`
		LastName     string `xml:"UsrLastName"`
		Address      string `xml:"UsrAddress"`
		Cards        string `xml:"UsrCards"`
	}
)

// ParseResponse 解析控制器响应。body 不是合法 XML 时返回 ParseError
func ParseResponse(op Operation, raw []byte) (*Response, error) {
	var doc xmlDocument
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	node := xmlResponse{Status: doc.Status, Message: doc.Message, Data: doc.Data}
	if doc.XMLName.Local != "response" {
		node = xmlResponse{}
		if len(doc.Responses) > 0 {
			node = doc.Responses[0]
		}
	}

	resp := &Response{
		Status:  parseStatus(node.Status),
		Message: strings.TrimSpace(node.Message),
	}

	switch op {
	case OpLoginUser:
		resp.Payload = LoginPayload{SessionID: strings.TrimSpace(node.Data.SessionID)}
	case OpReadUsers:
		resp.Payload = ReadUsersPayload{Users: node.Data.users()}
	default:
		resp.Payload = UpsertPayload{}
	}
	return resp, nil
}

func parseStatus(raw *string) int {
	if raw == nil {
		return statusMissing
	}
	status, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return statusMissing
	}
	return status
}

func (d xmlData) users() []ControllerUser {
	all := make([]xmlUser, 0, len(d.Users)+len(d.LowerUsers)+len(d.ListUsers))
	all = append(all, d.Users...)
	all = append(all, d.LowerUsers...)
	all = append(all, d.ListUsers...)

	users := make([]ControllerUser, 0, len(all))
	for _, u := range all {
		users = append(users, ControllerUser{
			ID:        pick(u.ID, u.IDAttr),
			FirstName: pick(u.Name, u.NameAttr),
			LastName:  pick(u.LastName, u.LastNameAttr),
			Address:   pick(u.Address, u.AddressAttr),
			Cards:     pick(u.Cards, u.CardsAttr),
		})
	}
	return users
}

func pick(elem, attr string) string {
	if v := strings.TrimSpace(elem); v != "" {
		return v
	}
	return strings.TrimSpace(attr)
}

// charsetReader 旧固件使用 ISO-8859-1 / Windows-1252 编码
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return input, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}
