package models

import (
	"testing"
	"time"

	"github.com/learninverse/server/internal/rbac"
)

func TestNormalizePair(t *testing.T) {
	tests := []struct {
		a, b  string
		wantA string
		wantB string
	}{
		{"alpha", "beta", "alpha", "beta"},
		{"beta", "alpha", "alpha", "beta"},
		{"same", "same", "same", "same"},
	}
	for _, tt := range tests {
		gotA, gotB := NormalizePair(tt.a, tt.b)
		if gotA != tt.wantA || gotB != tt.wantB {
			t.Errorf("NormalizePair(%q, %q) = (%q, %q), want (%q, %q)",
				tt.a, tt.b, gotA, gotB, tt.wantA, tt.wantB)
		}
	}
}

func TestPrivateChatParticipants(t *testing.T) {
	chat := &PrivateChat{ParticipantA: "a", ParticipantB: "b"}

	if got := chat.OtherParticipant("a"); got != "b" {
		t.Errorf("OtherParticipant(a) = %q, want b", got)
	}
	if got := chat.OtherParticipant("b"); got != "a" {
		t.Errorf("OtherParticipant(b) = %q, want a", got)
	}
	if got := chat.OtherParticipant("x"); got != "" {
		t.Errorf("OtherParticipant(x) = %q, want empty", got)
	}
	if !chat.HasParticipant("a") || !chat.HasParticipant("b") {
		t.Error("HasParticipant should be true for both participants")
	}
	if chat.HasParticipant("x") {
		t.Error("HasParticipant should be false for strangers")
	}
}

func TestMessageReadByUser(t *testing.T) {
	msg := &ChatMessage{
		ReadBy: ReadSet{
			{UserID: "u1", ReadAt: time.Now()},
		},
	}
	if !msg.ReadByUser("u1") {
		t.Error("u1 should count as read")
	}
	if msg.ReadByUser("u2") {
		t.Error("u2 should not count as read")
	}
}

func TestGroupMemberCan(t *testing.T) {
	member := &GroupMember{
		Permissions: PermissionSet{rbac.PermSendMessages, rbac.PermPinMessages},
	}
	if !member.Can(rbac.PermSendMessages) {
		t.Error("member should hold send_messages")
	}
	if member.Can(rbac.PermManagePermissions) {
		t.Error("member should not hold manage_permissions")
	}
}
