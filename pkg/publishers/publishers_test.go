package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "h1",
		Type: TypeHTTP,
	})
	if err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}

func TestLoadRegistryParsesCloudSinks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: queue
    type: SQS
    sqs:
      uri: " https://sqs.eu-west-1.amazonaws.com/123/outcomes "
      region: eu-west-1
      endpoint: http://localhost:4566
  - id: topic
    type: sns
    sns:
      topic_arn: arn:aws:sns:eu-west-1:123:outcomes
      region: eu-west-1
      access_key_id: test
      secret_access_key: test
  - id: gcp
    type: pubsub
    pubsub:
      project_id: probe
      topic: outcomes
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	queue, ok := reg.ByID("queue")
	if !ok || queue.Type != TypeSQS {
		t.Fatalf("expected sqs publisher, got %#v", queue)
	}
	if queue.SQS.QueueURL != "https://sqs.eu-west-1.amazonaws.com/123/outcomes" || queue.SQS.Endpoint != "http://localhost:4566" {
		t.Fatalf("unexpected sqs config %#v", queue.SQS)
	}

	topic, _ := reg.ByID("topic")
	if topic.SNS == nil || topic.SNS.Region != "eu-west-1" || topic.SNS.AccessKeyID != "test" {
		t.Fatalf("unexpected sns config %#v", topic.SNS)
	}

	gcp, _ := reg.ByID("gcp")
	if gcp.PubSub == nil || gcp.PubSub.ProjectID != "probe" || gcp.PubSub.Topic != "outcomes" {
		t.Fatalf("unexpected pubsub config %#v", gcp.PubSub)
	}
	if len(reg.Enabled()) != 3 {
		t.Fatalf("expected publishers to default to enabled")
	}
}

func TestLoadRegistryJSONDefaultsHTTP(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.json")
	raw := `{"publishers":[{"id":"hook","type":"http","http":{"url":"https://example.com","headers":{" X-Key ":" v ","Empty":""}}}]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	hook, _ := reg.ByID("hook")
	if hook.HTTP.Method != "POST" || hook.HTTP.TimeoutSeconds != 5 {
		t.Fatalf("expected http defaults, got %#v", hook.HTTP)
	}
	if len(hook.HTTP.Headers) != 1 || hook.HTTP.Headers["X-Key"] != "v" {
		t.Fatalf("unexpected headers %#v", hook.HTTP.Headers)
	}
}

func TestValidatePublisherConfigCloudSinks(t *testing.T) {
	cases := []PublisherConfig{
		{ID: "q", Type: TypeSQS},
		{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://q"}},
		{ID: "t", Type: TypeSNS, SNS: &SNSPublisherConfig{AWSAccess: AWSAccess{Region: "eu-west-1"}}},
		{ID: "g", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "p"}},
		{ID: "", Type: TypeHTTP},
		{ID: "x"},
	}
	for i, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("case %d: expected validation error for %#v", i, cfg)
		}
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: dup
    type: http
    http:
      url: https://a.example
  - id: dup
    type: http
    http:
      url: https://b.example
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
