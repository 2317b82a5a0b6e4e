package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("RESEND_API_KEY", "")
	if _, err := NewClient(); !errors.Is(err, ErrAPIKeyNotSet) {
		t.Errorf("expected ErrAPIKeyNotSet, got %v", err)
	}
}

func TestNewClient_DefaultFrom(t *testing.T) {
	t.Setenv("RESEND_FROM", "")
	c, err := NewClient(WithAPIKey("re_test"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.from != "naapim <noreply@naapim.app>" {
		t.Errorf("default from = %q", c.from)
	}
}

func TestSend(t *testing.T) {
	var gotAuth string
	var gotReq sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(WithAPIKey("re_test"), WithFrom("test <t@naapim.app>"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.Send(context.Background(), "user@example.com", "konu", "<p>merhaba</p>"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotAuth != "Bearer re_test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if len(gotReq.To) != 1 || gotReq.To[0] != "user@example.com" {
		t.Errorf("to = %v", gotReq.To)
	}
	if gotReq.From != "test <t@naapim.app>" || gotReq.Subject != "konu" || gotReq.HTML != "<p>merhaba</p>" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestSend_ErrorStatusIncludesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer srv.Close()

	c, err := NewClient(WithAPIKey("re_test"), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	err = c.Send(context.Background(), "bad", "konu", "<p>m</p>")
	if err == nil {
		t.Fatal("expected an error for a 422 response")
	}
	if !strings.Contains(err.Error(), "invalid to address") {
		t.Errorf("error should carry the response detail, got %v", err)
	}
}
