package notify

import "testing"

func TestParseArtifactRef(t *testing.T) {
	cases := []struct {
		ref       string
		chatID    int64
		messageID string
		ok        bool
	}{
		{"123456789:42", 123456789, "42", true},
		{"-1001234:99", -1001234, "99", true},
		{"123456789", 0, "", false},
		{"abc:42", 0, "", false},
		{"123:", 0, "", false},
		{"", 0, "", false},
	}
	for _, c := range cases {
		chatID, messageID, ok := parseArtifactRef(c.ref)
		if chatID != c.chatID || messageID != c.messageID || ok != c.ok {
			t.Errorf("parseArtifactRef(%q) = (%d, %q, %v), want (%d, %q, %v)",
				c.ref, chatID, messageID, ok, c.chatID, c.messageID, c.ok)
		}
	}
}
