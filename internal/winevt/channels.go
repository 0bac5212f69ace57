package winevt

import (
	"sort"
	"strings"
)

// Channel display groups for the source picker.
const (
	GroupWindowsLogs = "Windows Logs"
	GroupAppServices = "Applications and Services Logs"
	GroupOther       = "Other"
)

var windowsLogChannels = []string{"Application", "Security", "Setup", "System"}

// CategoriseChannel maps a channel name to its display group, mirroring
// the Event Viewer tree.
func CategoriseChannel(channel string) string {
	for _, name := range windowsLogChannels {
		if strings.EqualFold(channel, name) {
			return GroupWindowsLogs
		}
	}
	if strings.HasPrefix(channel, "Microsoft-Windows-") {
		return GroupAppServices
	}
	return GroupOther
}

// CommonChannels returns the subset of all that belongs to the classic
// Windows Logs group, in canonical order. These are shown first and
// selected by default.
func CommonChannels(all []string) []string {
	var result []string
	for _, name := range windowsLogChannels {
		for _, c := range all {
			if strings.EqualFold(c, name) {
				result = append(result, name)
				break
			}
		}
	}
	return result
}

// sortChannels sorts ascending (case-insensitive) and removes
// duplicates in place.
func sortChannels(channels []string) []string {
	if len(channels) < 2 {
		return channels
	}
	sort.SliceStable(channels, func(i, j int) bool {
		return strings.ToLower(channels[i]) < strings.ToLower(channels[j])
	})
	out := channels[:1]
	for _, c := range channels[1:] {
		if !strings.EqualFold(c, out[len(out)-1]) {
			out = append(out, c)
		}
	}
	return out
}
