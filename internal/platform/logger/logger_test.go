package logger

import "testing"

func TestSanitizeValueRedactsSecrets(t *testing.T) {
	for _, key := range []string{"api_key", "authorization", "google_credentials", "refresh_token"} {
		if got := sanitizeValue(key, "sk-123"); got != "[REDACTED]" {
			t.Fatalf("sanitizeValue(%q): want=%q got=%v", key, "[REDACTED]", got)
		}
	}
}

func TestSanitizeValueSummarizesContent(t *testing.T) {
	got := sanitizeValue("text", "Héllo there.")
	if got != "[12 chars]" {
		t.Fatalf("sanitizeValue(text): want=%q got=%v", "[12 chars]", got)
	}
	if got := sanitizeValue("raw_reply", ""); got != "[0 chars]" {
		t.Fatalf("sanitizeValue(raw_reply): want=%q got=%v", "[0 chars]", got)
	}
}

func TestSanitizeValueHashesClientIP(t *testing.T) {
	got, ok := sanitizeValue("client_ip", "10.0.0.1").(string)
	if !ok {
		t.Fatalf("sanitizeValue(client_ip): expected string")
	}
	if len(got) != len("hash:")+12 || got[:5] != "hash:" {
		t.Fatalf("sanitizeValue(client_ip): unexpected hash %q", got)
	}
	if again := sanitizeValue("client_ip", "10.0.0.1"); again != got {
		t.Fatalf("hash not stable: first=%q second=%v", got, again)
	}
}

func TestSanitizeValuePassesThroughPlainFields(t *testing.T) {
	if got := sanitizeValue("status", 200); got != 200 {
		t.Fatalf("sanitizeValue(status): want=200 got=%v", got)
	}
	nested := sanitizeValue("meta", map[string]interface{}{"prompt": "abc", "model": "gemini"}).(map[string]interface{})
	if nested["prompt"] != "[3 chars]" {
		t.Fatalf("nested prompt: want=%q got=%v", "[3 chars]", nested["prompt"])
	}
	if nested["model"] != "gemini" {
		t.Fatalf("nested model: want=%q got=%v", "gemini", nested["model"])
	}
}
