// Command shadow_compare posts the same seeded generation request to two
// deployments (for example the memory store and a Postgres-backed instance
// seeded with the same entities) and reports whether the timetables match.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

type scenario struct {
	Name     string          `json:"name"`
	Request  json.RawMessage `json:"request"`
	Critical bool            `json:"critical"`
}

type scenarioFile struct {
	Scenarios []scenario `json:"scenarios"`
}

type comparison struct {
	Scenario      scenario
	PrimaryStatus int
	ShadowStatus  int
	StatusMatch   bool
	BodyMatch     bool
	Diff          string
	Error         error
	Primary       time.Duration
	Shadow        time.Duration
}

// Fields that legitimately differ between two runs of the same request.
var volatileKeys = map[string]bool{"id": true, "generatedAt": true, "meta": true}

func main() {
	var (
		primaryBase string
		shadowBase  string
		prefix      string
		path        string
		timeout     time.Duration
	)

	flag.StringVar(&primaryBase, "primary", "http://localhost:8080", "primary API base URL")
	flag.StringVar(&shadowBase, "shadow", "http://localhost:8081", "shadow API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API prefix")
	flag.StringVar(&path, "scenarios", "scripts/shadow_compare/scenarios.json", "path to JSON scenarios file")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	scenarios, err := loadScenarios(path)
	if err != nil {
		log.Fatalf("failed to load scenarios: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	endpoint := strings.TrimRight(prefix, "/") + "/timetables/generate"

	var (
		results  []comparison
		breaking int
		optional int
	)
	for _, sc := range scenarios {
		res := compareScenario(client, primaryBase, shadowBase, endpoint, sc)
		if res.Error != nil || !res.StatusMatch || !res.BodyMatch {
			if sc.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	printReport(os.Stdout, results)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadScenarios(path string) ([]scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file scenarioFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios defined in %s", path)
	}
	for i, sc := range file.Scenarios {
		if !hasSeed(sc.Request) {
			return nil, fmt.Errorf("scenario %d (%s) has no seed; unseeded runs are not comparable", i, sc.Name)
		}
	}
	return file.Scenarios, nil
}

func hasSeed(raw json.RawMessage) bool {
	var req map[string]interface{}
	if err := json.Unmarshal(raw, &req); err != nil {
		return false
	}
	_, ok := req["seed"]
	return ok
}

func compareScenario(client *http.Client, primaryBase, shadowBase, endpoint string, sc scenario) comparison {
	res := comparison{Scenario: sc}

	primaryStatus, primaryBody, primaryDur, err := post(client, primaryBase+endpoint, sc.Request)
	if err != nil {
		res.Error = fmt.Errorf("primary request failed: %w", err)
		return res
	}
	shadowStatus, shadowBody, shadowDur, err := post(client, shadowBase+endpoint, sc.Request)
	if err != nil {
		res.Error = fmt.Errorf("shadow request failed: %w", err)
		return res
	}

	res.PrimaryStatus, res.ShadowStatus = primaryStatus, shadowStatus
	res.Primary, res.Shadow = primaryDur, shadowDur
	res.StatusMatch = primaryStatus == shadowStatus
	res.BodyMatch, res.Diff = timetablesEqual(primaryBody, shadowBody)
	return res
}

func post(client *http.Client, url string, body []byte) (int, []byte, time.Duration, error) {
	if client == nil {
		return 0, nil, 0, errors.New("nil client")
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, time.Since(start), err
	}
	return resp.StatusCode, payload, time.Since(start), nil
}

// timetablesEqual compares two envelopes after dropping volatile fields.
// The returned string names the first differing top-level data field.
func timetablesEqual(a, b []byte) (bool, string) {
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false, "primary body is not JSON"
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false, "shadow body is not JSON"
	}
	aj = stripVolatile(aj)
	bj = stripVolatile(bj)
	if reflect.DeepEqual(aj, bj) {
		return true, ""
	}
	return false, firstDiff(aj, bj)
}

func stripVolatile(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			if volatileKeys[k] {
				delete(val, k)
				continue
			}
			val[k] = stripVolatile(child)
		}
		return val
	case []interface{}:
		for i, child := range val {
			val[i] = stripVolatile(child)
		}
		return val
	default:
		return v
	}
}

func firstDiff(a, b interface{}) string {
	am, aok := a.(map[string]interface{})
	bm, bok := b.(map[string]interface{})
	if !aok || !bok {
		return "body"
	}
	ad, _ := am["data"].(map[string]interface{})
	bd, _ := bm["data"].(map[string]interface{})
	if ad == nil || bd == nil {
		if !reflect.DeepEqual(am["error"], bm["error"]) {
			return "error"
		}
		return "data"
	}
	for k, av := range ad {
		if !reflect.DeepEqual(av, bd[k]) {
			return "data." + k
		}
	}
	for k := range bd {
		if _, ok := ad[k]; !ok {
			return "data." + k
		}
	}
	return "body"
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Timetable Shadow Compare Report")
	fmt.Fprintln(w, "===============================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] %s\n", status, res.Scenario.Name)
		fmt.Fprintf(w, "  Primary: %d (%s)\n", res.PrimaryStatus, res.Primary)
		fmt.Fprintf(w, "  Shadow:  %d (%s)\n", res.ShadowStatus, res.Shadow)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
			continue
		}
		fmt.Fprintf(w, "  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Scenario.Critical)
		if res.Diff != "" {
			fmt.Fprintf(w, "  First difference: %s\n", res.Diff)
		}
	}
}
