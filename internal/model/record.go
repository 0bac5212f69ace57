package model

import "time"

// Levels in the Windows event schema, indexed by the numeric level value.
var levelNames = [6]string{
	"LogAlways", "Critical", "Error", "Warning", "Information", "Verbose",
}

// Numeric level values as used in the System block of event XML.
const (
	LevelLogAlways   uint8 = 0
	LevelCritical    uint8 = 1
	LevelError       uint8 = 2
	LevelWarning     uint8 = 3
	LevelInformation uint8 = 4
	LevelVerbose     uint8 = 5
)

// LevelName returns the display name for a numeric event level.
// Values above 5 map to "LogAlways" because the decoder clamps
// unknown levels to 0 before records are constructed.
func LevelName(level uint8) string {
	if level > 5 {
		return levelNames[0]
	}
	return levelNames[level]
}

// DataPair is a single (name, value) entry from an event's
// <EventData> or <UserData> block. Source order is preserved.
type DataPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EventRecord is a single parsed Windows Event Log entry.
//
// Every record is built from the XML rendered by EvtRender. The struct
// carries the structured fields plus the original raw XML for the
// detail view and XML text search. Field order matches the canonical
// export layout.
type EventRecord struct {
	// Channel is the log channel this event came from (e.g. "Application",
	// "Microsoft-Windows-Sysmon/Operational").
	Channel string `json:"channel"`

	// EventID is the numeric identifier for this event type.
	EventID uint32 `json:"event_id"`

	// Level is the severity: 0=LogAlways, 1=Critical, 2=Error,
	// 3=Warning, 4=Informational, 5=Verbose. Always <= 5.
	Level uint8 `json:"level"`

	// LevelName is the display name for Level, cached at construction.
	LevelName string `json:"level_name"`

	// ProviderName is the emitting provider / source.
	ProviderName string `json:"provider_name"`

	// Timestamp is the event creation time, normalised to UTC with
	// millisecond precision.
	Timestamp time.Time `json:"timestamp"`

	// Computer is the host name the event was generated on.
	Computer string `json:"computer"`

	// Message is the provider-formatted message. Empty only when
	// formatting failed and the event carried no event data.
	Message string `json:"message"`

	ProcessID uint32 `json:"process_id"`
	ThreadID  uint32 `json:"thread_id"`

	Task     uint16 `json:"task"`
	Opcode   uint8  `json:"opcode"`
	Keywords uint64 `json:"keywords"`

	// ActivityID is the correlation activity GUID, if present.
	ActivityID string `json:"activity_id,omitempty"`

	// UserSID is the security identifier of the logging user, if present.
	UserSID string `json:"user_sid,omitempty"`

	// RecordID is the channel-local record number from
	// System/EventRecordID. Used for live-tail boundary deduplication.
	RecordID uint64 `json:"record_id"`

	// EventData holds the ordered (name, value) pairs from <EventData>
	// or <UserData>.
	EventData []DataPair `json:"event_data"`

	// RawXML is the exact XML returned by EvtRender.
	RawXML string `json:"raw_xml"`
}

// DisplayMessage returns a string suitable for the table's message
// column: the formatted message, else the first event data value,
// else a placeholder.
func (e *EventRecord) DisplayMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.EventData) > 0 {
		return e.EventData[0].Value
	}
	return "(no message)"
}
