package hermes

import (
	"strings"
	"testing"
)

func TestSubjects(t *testing.T) {
	prefix := strings.TrimSuffix(SubjectAllAnalytics, ">")
	for _, subject := range []string{SubjectInteraction, SubjectBotLoad} {
		if !strings.HasPrefix(subject, prefix) {
			t.Errorf("subject %q is not covered by %q", subject, SubjectAllAnalytics)
		}
	}
	if SubjectInteraction != "docsbot.analytics.interaction" {
		t.Errorf("expected SubjectInteraction 'docsbot.analytics.interaction', got '%s'", SubjectInteraction)
	}
}
