package model

import "testing"

func TestParseAttachmentsMalformed(t *testing.T) {
	if atts := ParseAttachments("not json"); atts != nil {
		t.Fatalf("malformed input should yield nil, got %+v", atts)
	}
	if atts := ParseAttachments(""); atts != nil {
		t.Fatalf("empty input should yield nil, got %+v", atts)
	}
}

func TestHasAttachments(t *testing.T) {
	e := Email{}
	if e.HasAttachments() {
		t.Fatalf("empty attachment field should report none")
	}

	e.Attachments = EncodeAttachments([]Attachment{{
		ID:          "att-1",
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
	}})
	if !e.HasAttachments() {
		t.Fatalf("expected attachments to be detected")
	}

	e.Attachments = "{broken"
	if e.HasAttachments() {
		t.Fatalf("unparseable attachment field should report none")
	}
}
