// Package xmlparser decodes the XML rendered by EvtRender into
// model.EventRecord values.
//
// The input follows the Windows Event schema:
//
//	<Event xmlns="http://schemas.microsoft.com/win/2004/08/events/event">
//	  <System>
//	    <Provider Name="..." />
//	    <EventID>1001</EventID>
//	    <Level>2</Level>
//	    <TimeCreated SystemTime="2024-01-15T10:23:45.1234567Z" />
//	    ...
//	  </System>
//	  <EventData>
//	    <Data Name="key">value</Data>
//	  </EventData>
//	</Event>
//
// Missing or malformed fields degrade to zero values (a missing or
// unparseable timestamp to the current time) rather than failing the
// whole record; only structurally broken XML is an error.
package xmlparser

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/Swatto86/EventSleuth/internal/model"
)

var logger = log.NewNopLogger()

// SetLogger installs the package logger. Decode warnings (unparseable
// timestamps) are reported at warn level.
func SetLogger(l log.Logger) {
	if l != nil {
		logger = l
	}
}

type xmlEvent struct {
	System    xmlSystem `xml:"System"`
	EventData *xmlBlock `xml:"EventData"`
	UserData  *xmlBlock `xml:"UserData"`
}

type xmlSystem struct {
	Provider      xmlProvider    `xml:"Provider"`
	EventID       string         `xml:"EventID"`
	Level         string         `xml:"Level"`
	Task          string         `xml:"Task"`
	Opcode        string         `xml:"Opcode"`
	Keywords      string         `xml:"Keywords"`
	TimeCreated   xmlTimeCreated `xml:"TimeCreated"`
	EventRecordID string         `xml:"EventRecordID"`
	Correlation   xmlCorrelation `xml:"Correlation"`
	Execution     xmlExecution   `xml:"Execution"`
	Channel       string         `xml:"Channel"`
	Computer      string         `xml:"Computer"`
	Security      xmlSecurity    `xml:"Security"`
}

type xmlProvider struct {
	Name string `xml:"Name,attr"`
}

type xmlTimeCreated struct {
	SystemTime string `xml:"SystemTime,attr"`
}

type xmlCorrelation struct {
	ActivityID string `xml:"ActivityID,attr"`
}

type xmlExecution struct {
	ProcessID string `xml:"ProcessID,attr"`
	ThreadID  string `xml:"ThreadID,attr"`
}

type xmlSecurity struct {
	UserID string `xml:"UserID,attr"`
}

// xmlBlock captures <EventData> or <UserData> generically, preserving
// child order.
type xmlBlock struct {
	Children []xmlAny `xml:",any"`
}

// xmlAny is a generic element: name, attributes of interest, direct
// text, and nested children.
type xmlAny struct {
	XMLName  xml.Name
	Name     string   `xml:"Name,attr"`
	Text     string   `xml:",chardata"`
	Children []xmlAny `xml:",any"`
}

// Decode parses one rendered event XML blob into an EventRecord.
//
// sourceChannel is used when the XML carries no <Channel> element
// (common for .evtx file queries). The record's Message is left empty;
// the reader attaches it after provider formatting.
func Decode(rawXML, sourceChannel string) (*model.EventRecord, error) {
	var ev xmlEvent
	if err := xml.Unmarshal([]byte(rawXML), &ev); err != nil {
		return nil, &model.XMLParseError{Detail: fmt.Sprintf("unmarshal event: %v", err)}
	}

	sys := ev.System

	channel := strings.TrimSpace(sys.Channel)
	if channel == "" {
		channel = sourceChannel
	}

	lvl := parseLevel(sys.Level)

	rec := &model.EventRecord{
		Channel:      channel,
		EventID:      uint32(parseUint(sys.EventID, 32)),
		Level:        lvl,
		LevelName:    model.LevelName(lvl),
		ProviderName: sys.Provider.Name,
		Timestamp:    parseSystemTime(sys.TimeCreated.SystemTime),
		Computer:     strings.TrimSpace(sys.Computer),
		ProcessID:    uint32(parseUint(sys.Execution.ProcessID, 32)),
		ThreadID:     uint32(parseUint(sys.Execution.ThreadID, 32)),
		Task:         uint16(parseUint(sys.Task, 16)),
		Opcode:       uint8(parseUint(sys.Opcode, 8)),
		Keywords:     parseKeywords(sys.Keywords),
		ActivityID:   sys.Correlation.ActivityID,
		UserSID:      sys.Security.UserID,
		RecordID:     parseUint(sys.EventRecordID, 64),
		EventData:    parseDataPairs(ev.EventData, ev.UserData),
		RawXML:       rawXML,
	}
	return rec, nil
}

// parseDataPairs extracts ordered (name, value) pairs. <EventData>
// takes precedence; otherwise <UserData> wrapper children are
// flattened one level.
func parseDataPairs(eventData, userData *xmlBlock) []model.DataPair {
	if eventData != nil && len(eventData.Children) > 0 {
		pairs := make([]model.DataPair, 0, len(eventData.Children))
		unnamed := 0
		for _, child := range eventData.Children {
			if child.XMLName.Local != "Data" {
				continue
			}
			name := child.Name
			if name == "" {
				name = fmt.Sprintf("Data[%d]", unnamed)
				unnamed++
			}
			pairs = append(pairs, model.DataPair{Name: name, Value: collectText(&child)})
		}
		return pairs
	}

	if userData != nil {
		var pairs []model.DataPair
		for _, wrapper := range userData.Children {
			for _, child := range wrapper.Children {
				pairs = append(pairs, model.DataPair{
					Name:  child.XMLName.Local,
					Value: collectText(&child),
				})
			}
		}
		return pairs
	}
	return nil
}

// collectText gathers the text content of a node and its descendants.
func collectText(n *xmlAny) string {
	if len(n.Children) == 0 {
		return strings.TrimSpace(n.Text)
	}
	var b strings.Builder
	b.WriteString(n.Text)
	for i := range n.Children {
		b.WriteString(collectText(&n.Children[i]))
	}
	return strings.TrimSpace(b.String())
}

// parseSystemTime parses the TimeCreated SystemTime attribute.
//
// Windows emits ISO 8601 with varying fractional precision, including
// 7-digit (100 ns) fractions which RFC3339Nano accepts. The result is
// normalised to UTC at millisecond precision. Unparseable input falls
// back to the current time with a warning.
func parseSystemTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC().Truncate(time.Millisecond)
		}
		// Some renderers omit the zone designator entirely.
		if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
			return t.UTC().Truncate(time.Millisecond)
		}
		level.Warn(logger).Log("msg", "unparseable SystemTime, using current time", "value", s)
	}
	return time.Now().UTC().Truncate(time.Millisecond)
}

// parseLevel parses a level value, clamping unknowns to 0.
func parseLevel(s string) uint8 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil || v > 5 {
		return 0
	}
	return uint8(v)
}

// parseUint parses a decimal field, returning 0 on any failure.
func parseUint(s string, bits int) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, bits)
	if err != nil {
		return 0
	}
	return v
}

// parseKeywords parses the Keywords hex bitmask (e.g. "0x8020000000000000").
func parseKeywords(s string) uint64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0
	}
	return v
}
