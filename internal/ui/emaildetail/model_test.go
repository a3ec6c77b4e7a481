package emaildetail

import (
	"strings"
	"testing"

	"github.com/slopmail/slopmail/internal/model"
)

func TestRenderBodyPrefersHTML(t *testing.T) {
	e := &model.Email{
		BodyText: "plain fallback",
		BodyHTML: "<p>Hello <b>world</b></p>",
	}

	got := RenderBody(e)
	if !strings.Contains(got, "Hello") {
		t.Fatalf("expected converted HTML, got %q", got)
	}
	if strings.Contains(got, "<p>") {
		t.Fatalf("markup leaked into output: %q", got)
	}
	if got == "plain fallback" {
		t.Fatalf("plain text should not win over HTML")
	}
}

func TestRenderBodyFallsBackToText(t *testing.T) {
	e := &model.Email{BodyText: "just text"}
	if got := RenderBody(e); got != "just text" {
		t.Fatalf("expected plain text verbatim, got %q", got)
	}
}

func TestRenderBodyPlaceholderWhenEmpty(t *testing.T) {
	e := &model.Email{}
	if got := RenderBody(e); !strings.Contains(got, "No content") {
		t.Fatalf("expected placeholder, got %q", got)
	}
}
