package handler

import (
	"strings"
	"testing"

	"github.com/quizline/quizline/internal/model"
)

func TestAdminHelp(t *testing.T) {
	env := newTestEnv(t)

	// Help works for anyone, and is the fallback for empty or unknown input.
	for _, body := range []string{"help", "", "HELP", "bogus command"} {
		reply := env.sendSMS(t, "/sms/admin", "+15559990000", body)
		if reply != helpMessage {
			t.Errorf("admin(%q) = %q, want help message", body, reply)
		}
	}
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)

	env.sendSMS(t, "/sms/quiz", "+15551234567", "hi")
	if _, err := env.store.RecordCompletedRun("+15551110000", []string{"a", "b"}); err != nil {
		t.Fatalf("RecordCompletedRun: %v", err)
	}

	reply := env.sendSMS(t, "/sms/admin", adminNumber, "stats")
	if reply != "Sessions: 1. Completed runs: 1." {
		t.Errorf("stats reply = %q", reply)
	}

	// Non-admins get help, not numbers.
	reply = env.sendSMS(t, "/sms/admin", "+15559990000", "stats")
	if reply != helpMessage {
		t.Errorf("non-admin stats reply = %q", reply)
	}
}

func TestAdminReset(t *testing.T) {
	env := newTestEnv(t)
	participant := "+15551234567"

	env.sendSMS(t, "/sms/quiz", participant, "hi")
	env.sendSMS(t, "/sms/quiz", participant, "19")

	reply := env.sendSMS(t, "/sms/admin", adminNumber, "reset "+participant)
	if !strings.Contains(reply, participant) {
		t.Errorf("reset reply = %q", reply)
	}

	sess, err := env.store.FetchOrCreate(participant)
	if err != nil {
		t.Fatalf("FetchOrCreate: %v", err)
	}
	if sess.State() != model.StateNotStarted {
		t.Errorf("expected not_started after admin reset, got %q", sess.State())
	}

	// Missing argument gets a usage hint, not an error.
	reply = env.sendSMS(t, "/sms/admin", adminNumber, "reset")
	if !strings.HasPrefix(reply, "Usage:") {
		t.Errorf("reset without args reply = %q", reply)
	}

	// Bare participant numbers are normalized before lookup.
	env.sendSMS(t, "/sms/quiz", participant, "hi")
	env.sendSMS(t, "/sms/admin", adminNumber, "reset 5551234567")
	sess, err = env.store.FetchOrCreate(participant)
	if err != nil {
		t.Fatalf("FetchOrCreate: %v", err)
	}
	if sess.State() != model.StateNotStarted {
		t.Errorf("expected not_started after reset by bare number, got %q", sess.State())
	}
}

func TestAdminNonAdminReset(t *testing.T) {
	env := newTestEnv(t)
	participant := "+15551234567"

	env.sendSMS(t, "/sms/quiz", participant, "hi")

	reply := env.sendSMS(t, "/sms/admin", "+15559990000", "reset "+participant)
	if reply != helpMessage {
		t.Errorf("non-admin reset reply = %q", reply)
	}

	sess, err := env.store.FetchOrCreate(participant)
	if err != nil {
		t.Fatalf("FetchOrCreate: %v", err)
	}
	if sess.State() != model.StateAwaitingAnswer {
		t.Errorf("session should be untouched, got state %q", sess.State())
	}
}
