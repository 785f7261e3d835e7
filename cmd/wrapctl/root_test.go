package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	descriptor "github.com/goliatone/go-descriptor"
	"github.com/goliatone/go-descriptor/pkg/activity"
)

const ageDocument = `
fields:
  age: 27
layers:
  - key: age
    privateKey: _base
    onSet: "value + 100"
  - key: age
    onGet: "raw * 2"
`

func writeDocument(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRunAppliesWritesThroughLayers(t *testing.T) {
	path := writeDocument(t, "age.yaml", ageDocument)

	out, _, err := execute(t, "run", "--file", path, "--set", "age=5")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got, want := strings.TrimSpace(out), "age = 10"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRunPrintsTraces(t *testing.T) {
	path := writeDocument(t, "age.yaml", ageDocument)

	out, _, err := execute(t, "run", "-f", path, "--set", "age=5", "--trace")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected read and trace lines, got %q", out)
	}
	trace, err := descriptor.TraceFromJSON([]byte(lines[1]))
	if err != nil {
		t.Fatalf("decode trace: %v", err)
	}
	if trace.Key != "age" || len(trace.Layers) != 3 {
		t.Fatalf("unexpected trace: %+v", trace)
	}
}

func TestRunDefaultEngineFromEnvironment(t *testing.T) {
	path := writeDocument(t, "name.json", `{"layers": [{"key": "name", "onGet": "raw .. '!'"}]}`)
	t.Setenv("WRAPCTL_ENGINE", "lua")

	out, _, err := execute(t, "run", "--file", path, "--set", "name=ada")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got, want := strings.TrimSpace(out), "name = ada!"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRunFileFromEnvironment(t *testing.T) {
	t.Setenv("WRAPCTL_FILE", writeDocument(t, "age.yaml", ageDocument))

	out, _, err := execute(t, "run", "--get", "age", "--set", "age=5")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got, want := strings.TrimSpace(out), "age = 10"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRunEmitsEvents(t *testing.T) {
	path := writeDocument(t, "age.yaml", ageDocument)

	_, errOut, err := execute(t, "run", "--file", path, "--set", "age=1", "--events")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	verbs := map[string]int{}
	for _, line := range strings.Split(strings.TrimSpace(errOut), "\n") {
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var event struct {
			Verb string `json:"verb"`
		}
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		verbs[event.Verb]++
	}
	if verbs[activity.VerbLayerInstalled] != 2 || verbs[activity.VerbValueSet] != 2 {
		t.Fatalf("expected two installs and two stores, got %v", verbs)
	}
}

func TestRunErrors(t *testing.T) {
	path := writeDocument(t, "age.yaml", ageDocument)

	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing file flag", args: []string{"run"}, want: "--file"},
		{name: "unreadable file", args: []string{"run", "--file", filepath.Join(t.TempDir(), "nope.yaml")}, want: "read"},
		{name: "bad assignment", args: []string{"run", "--file", path, "--set", "age"}, want: "want key=value"},
		{name: "bad log level", args: []string{"run", "--file", path, "--log-level", "loud"}, want: "wrapctl"},
		{name: "unknown engine", args: []string{"run", "--file", path, "--engine", "perl"}, want: "unknown engine"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestInspectDescribesSlots(t *testing.T) {
	path := writeDocument(t, "age.yaml", ageDocument+"  - key: name\n")

	out, _, err := execute(t, "inspect", "--file", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var infos []descriptor.PropertyInfo
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected two slots, got %+v", infos)
	}
	if infos[0].Key != "age" || infos[0].Kind != "layer" || infos[0].Depth != 3 {
		t.Fatalf("unexpected age slot: %+v", infos[0])
	}
	if want := []string{"_age", "_base"}; strings.Join(infos[0].PrivateKeys, ",") != strings.Join(want, ",") {
		t.Fatalf("expected private keys %v, got %v", want, infos[0].PrivateKeys)
	}
	if infos[1].Key != "name" || infos[1].Depth != 1 {
		t.Fatalf("unexpected name slot: %+v", infos[1])
	}
}

func TestParseScalar(t *testing.T) {
	cases := map[string]any{
		"5":     int64(5),
		"2.5":   2.5,
		"true":  true,
		"ada":   "ada",
		"":      "",
		"1e3":   1000.0,
		"FALSE": false,
	}
	for raw, want := range cases {
		if got := parseScalar(raw); got != want {
			t.Fatalf("parseScalar(%q) = %#v, want %#v", raw, got, want)
		}
	}
}

func TestRunKeepsFieldKeyCase(t *testing.T) {
	documents := map[string]string{
		"user.yaml": `
fields:
  userAge: 27
layers:
  - key: userAge
    onSet: "lua:value + 1"
`,
		"user.toml": `
[fields]
userAge = 27

[[layers]]
key = "userAge"
onSet = "lua:value + 1"
`,
		"user.json": `{"fields": {"userAge": 27}, "layers": [{"key": "userAge", "onSet": "lua:value + 1"}]}`,
	}
	for name, body := range documents {
		t.Run(name, func(t *testing.T) {
			path := writeDocument(t, name, body)

			out, _, err := execute(t, "run", "--file", path, "--set", "userAge=5", "--trace")
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			lines := strings.Split(strings.TrimSpace(out), "\n")
			if len(lines) != 2 || lines[0] != "userAge = 6" {
				t.Fatalf("expected a single userAge slot, got %q", out)
			}
			trace, err := descriptor.TraceFromJSON([]byte(lines[1]))
			if err != nil {
				t.Fatalf("decode trace: %v", err)
			}
			tail := trace.Layers[len(trace.Layers)-1]
			if len(trace.Layers) != 2 || tail.Kind != "data" || fmt.Sprint(tail.Raw) != "5" {
				t.Fatalf("expected the write to reach the native slot, got %+v", trace.Layers)
			}
		})
	}
}

func TestOriginalFieldsRejectsNonObject(t *testing.T) {
	path := writeDocument(t, "bad.yaml", "fields: [1, 2]\nlayers: []\n")
	if _, err := originalFields(path); err == nil || !strings.Contains(err.Error(), "want object") {
		t.Fatalf("expected shape error, got %v", err)
	}
}
