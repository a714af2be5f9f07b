package mqtt

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultTopicPrefix = "smarthome"

// Topics lays out direct-method traffic for one device:
//
//	<prefix>/<device>/methods/req/<method>/<rid>
//	<prefix>/<device>/methods/res/<status>/<rid>
type Topics struct {
	Prefix   string
	DeviceID string
}

func NewTopics(prefix, deviceID string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: strings.TrimSuffix(prefix, "/"), DeviceID: deviceID}
}

func (t Topics) base() string {
	return t.Prefix + "/" + t.DeviceID + "/methods"
}

func (t Topics) Request(method, rid string) string {
	return fmt.Sprintf("%s/req/%s/%s", t.base(), method, rid)
}

func (t Topics) Response(status int, rid string) string {
	return fmt.Sprintf("%s/res/%d/%s", t.base(), status, rid)
}

func (t Topics) RequestFilter() string {
	return t.base() + "/req/+/+"
}

func (t Topics) ResponseFilter() string {
	return t.base() + "/res/+/+"
}

// ParseRequest extracts method and request id from a request topic.
func (t Topics) ParseRequest(topic string) (method, rid string, err error) {
	rest, ok := strings.CutPrefix(topic, t.base()+"/req/")
	if !ok {
		return "", "", fmt.Errorf("not a request topic: %s", topic)
	}
	method, rid, ok = strings.Cut(rest, "/")
	if !ok || method == "" || rid == "" || strings.Contains(rid, "/") {
		return "", "", fmt.Errorf("malformed request topic: %s", topic)
	}
	return method, rid, nil
}

// ParseResponse extracts status and request id from a response topic.
func (t Topics) ParseResponse(topic string) (status int, rid string, err error) {
	rest, ok := strings.CutPrefix(topic, t.base()+"/res/")
	if !ok {
		return 0, "", fmt.Errorf("not a response topic: %s", topic)
	}
	code, rid, ok := strings.Cut(rest, "/")
	if !ok || rid == "" || strings.Contains(rid, "/") {
		return 0, "", fmt.Errorf("malformed response topic: %s", topic)
	}
	status, err = strconv.Atoi(code)
	if err != nil {
		return 0, "", fmt.Errorf("malformed status in %s: %w", topic, err)
	}
	return status, rid, nil
}
