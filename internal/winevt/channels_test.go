package winevt

import (
	"reflect"
	"testing"
)

func TestCategoriseChannel(t *testing.T) {
	cases := map[string]string{
		"Application": GroupWindowsLogs,
		"security":    GroupWindowsLogs,
		"System":      GroupWindowsLogs,
		"Setup":       GroupWindowsLogs,
		"Microsoft-Windows-Sysmon/Operational": GroupAppServices,
		"OpenSSH/Operational":                  GroupOther,
	}
	for channel, want := range cases {
		if got := CategoriseChannel(channel); got != want {
			t.Errorf("CategoriseChannel(%q) = %q, want %q", channel, got, want)
		}
	}
}

func TestCommonChannels(t *testing.T) {
	all := []string{
		"Microsoft-Windows-Sysmon/Operational",
		"application",
		"System",
		"OpenSSH/Operational",
	}
	got := CommonChannels(all)
	want := []string{"Application", "System"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CommonChannels = %v, want %v", got, want)
	}
}

func TestSortChannelsDedup(t *testing.T) {
	in := []string{"System", "application", "Application", "Microsoft-Windows-Foo/Admin", "system"}
	got := sortChannels(in)
	want := []string{"application", "Microsoft-Windows-Foo/Admin", "System"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sortChannels = %v, want %v", got, want)
	}
}
