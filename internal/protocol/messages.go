// ABOUTME: Metrodrone control protocol message type definitions
// ABOUTME: Defines the envelope, handshake, command/result and push event payloads
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/metrodrone/metrodrone-go/pkg/metrodrone"
)

// Path is the WebSocket endpoint served by the control server
const Path = "/metrodrone"

// Message types
const (
	TypeClientHello = "client/hello"
	TypeServerHello = "server/hello"
	TypeCommand     = "command"
	TypeResult      = "result"
	TypeState       = "state"
	TypeFieldEvent  = "event/field"
	TypeTickEvent   = "event/tick"
)

// Command methods
const (
	MethodMetronomeStart        = "metronome/start"
	MethodMetronomeStop         = "metronome/stop"
	MethodMetronomeTap          = "metronome/tap"
	MethodSetBPM                = "metronome/setBpm"
	MethodSetSubdivision        = "metronome/setSubdivision"
	MethodSetNumerator          = "metronome/setTimeSignatureNumerator"
	MethodSetDenominator        = "metronome/setTimeSignatureDenominator"
	MethodSetNextTickType       = "metronome/setNextTickType"
	MethodSetTickTypes          = "metronome/setTickTypes"
	MethodSetDroneDurationRatio = "metronome/setDroneDurationRatio"
	MethodConfigure             = "metronome/configure"
	MethodDroneStart            = "drone/start"
	MethodDroneStop             = "drone/stop"
	MethodSetPulsing            = "drone/setPulsing"
	MethodSetNote               = "drone/setNote"
	MethodSetTuningStandard     = "drone/setTuningStandard"
	MethodSetSoundType          = "drone/setSoundType"
)

// Methods lists every command method in display order
var Methods = []string{
	MethodMetronomeStart, MethodMetronomeStop, MethodMetronomeTap,
	MethodSetBPM, MethodSetSubdivision, MethodSetNumerator, MethodSetDenominator,
	MethodSetNextTickType, MethodSetTickTypes, MethodSetDroneDurationRatio, MethodConfigure,
	MethodDroneStart, MethodDroneStop, MethodSetPulsing, MethodSetNote,
	MethodSetTuningStandard, MethodSetSoundType,
}

// Error codes carried in Result.Code
const (
	CodeConfigurationError = "CONFIGURATION_ERROR"
	CodeSinkUnavailable    = "SINK_UNAVAILABLE"
	CodeInvalidArguments   = "INVALID_ARGUMENTS"
	CodeUnknownMethod      = "UNKNOWN_METHOD"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string     `json:"server_id"`
	Name     string     `json:"name"`
	Version  int        `json:"version"`
	Device   DeviceInfo `json:"device_info"`
}

// DeviceInfo identifies the software behind a server
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// Args carries command arguments: any subset of the engine settings plus the
// beat index for setNextTickType
type Args struct {
	metrodrone.Settings
	TickIndex *int `json:"tickIndex,omitempty"`
}

// Command asks the server to invoke one engine method
type Command struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Args   Args   `json:"args"`
}

// Result answers a Command with the same ID
type Result struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
	BPM   *int   `json:"bpm,omitempty"`
}

// State is a full snapshot sent after the handshake
type State struct {
	Settings         metrodrone.Settings `json:"settings"`
	MetronomePlaying bool                `json:"metronomePlaying"`
	DronePlaying     bool                `json:"dronePlaying"`
}

// FieldEvent pushes one engine field change
type FieldEvent struct {
	Stream string      `json:"stream"`
	Field  string      `json:"field"`
	Value  interface{} `json:"value"`
}

// TickEvent pushes one audible beat
type TickEvent struct {
	Beat int `json:"beat"`
}

// envelope is used to decode a message before its payload type is known
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode splits raw JSON into its type and typed payload
func Decode(data []byte) (string, interface{}, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("failed to decode message: %w", err)
	}

	var payload interface{}
	switch env.Type {
	case TypeClientHello:
		payload = &ClientHello{}
	case TypeServerHello:
		payload = &ServerHello{}
	case TypeCommand:
		payload = &Command{}
	case TypeResult:
		payload = &Result{}
	case TypeState:
		payload = &State{}
	case TypeFieldEvent:
		payload = &FieldEvent{}
	case TypeTickEvent:
		payload = &TickEvent{}
	default:
		return env.Type, nil, fmt.Errorf("unknown message type: %s", env.Type)
	}

	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return env.Type, nil, fmt.Errorf("failed to decode %s payload: %w", env.Type, err)
		}
	}
	return env.Type, payload, nil
}
