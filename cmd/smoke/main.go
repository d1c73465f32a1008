package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
	defaultUserID  = "smoke-user"
)

var (
	apiBase string
	token   string
	userID  string
	client  = &http.Client{Timeout: 30 * time.Second}
	planID  string
)

func main() {
	fmt.Println("=== EPE E2E Smoke Test ===")
	fmt.Println()

	apiBase = strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBase), "/")
	token = getEnv("SMOKE_TOKEN", "")
	userID = getEnv("SMOKE_USER_ID", defaultUserID)

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Printf("User ID: %s\n", userID)
	fmt.Println()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Dev Sign-In", testDevAuth},
		{"List Recipes", testListRecipes},
		{"List Exercises", testListExercises},
		{"Preview Plan", testPreviewPlan},
		{"Reject Invalid Input", testRejectInvalid},
		{"Create Plan", testCreatePlan},
		{"Get Plan", testGetPlan},
		{"List Plans", testListPlans},
		{"Plan Report (PDF)", func() error { return testReport("pdf", "%PDF") }},
		{"Plan Report (CSV)", func() error { return testReport("csv", "date,focus") }},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	var body struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}
	if err := doJSON(http.MethodGet, "/healthz", nil, http.StatusOK, &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("unexpected status %q", body.Status)
	}
	fmt.Printf("(storage=%s) ", body.Storage)
	return nil
}

// testDevAuth obtains a token when none was supplied. A 404 means dev auth is
// off and the server runs without auth, which is fine.
func testDevAuth() error {
	if token != "" {
		return nil
	}

	resp, err := send(http.MethodPost, "/v1/auth/dev", map[string]string{"user_id": userID})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		fmt.Printf("(dev auth disabled) ")
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	if out.AccessToken == "" {
		return fmt.Errorf("empty access_token")
	}
	token = out.AccessToken
	return nil
}

func testListRecipes() error {
	var body struct {
		Recipes []json.RawMessage `json:"recipes"`
	}
	if err := doJSON(http.MethodGet, "/v1/catalog/recipes", nil, http.StatusOK, &body); err != nil {
		return err
	}
	if len(body.Recipes) == 0 {
		return fmt.Errorf("catalog has no recipes; run cmd/seed first")
	}
	fmt.Printf("(%d) ", len(body.Recipes))
	return nil
}

func testListExercises() error {
	var body struct {
		Exercises []json.RawMessage `json:"exercises"`
	}
	if err := doJSON(http.MethodGet, "/v1/catalog/exercises", nil, http.StatusOK, &body); err != nil {
		return err
	}
	if len(body.Exercises) == 0 {
		return fmt.Errorf("catalog has no exercises; run cmd/seed first")
	}
	fmt.Printf("(%d) ", len(body.Exercises))
	return nil
}

type planBody struct {
	PlanID       string            `json:"plan_id"`
	UserID       string            `json:"user_id"`
	KcalTarget   int               `json:"kcal_target"`
	Week         []json.RawMessage `json:"week"`
	Explanations []string          `json:"explanations"`
}

func testPreviewPlan() error {
	var body planBody
	if err := doJSON(http.MethodPost, "/v1/plans/preview", smokeInput(), http.StatusOK, &body); err != nil {
		return err
	}
	if len(body.Week) != 7 {
		return fmt.Errorf("expected 7 days, got %d", len(body.Week))
	}
	if len(body.Explanations) == 0 {
		return fmt.Errorf("expected explanations")
	}
	return nil
}

func testRejectInvalid() error {
	in := smokeInput()
	in["weight_kg"] = 0
	in["primary_goal"] = "bulk"

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := doJSON(http.MethodPost, "/v1/plans/preview", in, http.StatusBadRequest, &body); err != nil {
		return err
	}
	if body.Error.Code != "invalid_input" {
		return fmt.Errorf("expected invalid_input, got %q", body.Error.Code)
	}
	return nil
}

func testCreatePlan() error {
	var body planBody
	if err := doJSON(http.MethodPost, "/v1/plans", smokeInput(), http.StatusCreated, &body); err != nil {
		return err
	}
	if body.PlanID == "" {
		return fmt.Errorf("no plan_id in response")
	}
	planID = body.PlanID
	fmt.Printf("(plan=%s kcal=%d) ", planID, body.KcalTarget)
	return nil
}

func testGetPlan() error {
	if planID == "" {
		return fmt.Errorf("no plan ID from previous step")
	}
	var body planBody
	if err := doJSON(http.MethodGet, "/v1/plans/"+planID, nil, http.StatusOK, &body); err != nil {
		return err
	}
	if body.PlanID != planID || len(body.Week) != 7 {
		return fmt.Errorf("unexpected plan %s with %d days", body.PlanID, len(body.Week))
	}
	return nil
}

func testListPlans() error {
	var body struct {
		Plans []struct {
			PlanID string `json:"plan_id"`
		} `json:"plans"`
	}
	if err := doJSON(http.MethodGet, "/v1/plans?user_id="+userID+"&limit=10", nil, http.StatusOK, &body); err != nil {
		return err
	}
	for _, p := range body.Plans {
		if p.PlanID == planID {
			return nil
		}
	}
	return fmt.Errorf("plan %s not found in list of %d", planID, len(body.Plans))
}

// testReport accepts either streamed bytes or a presigned URL, depending on BLOB_MODE.
func testReport(format, prefix string) error {
	if planID == "" {
		return fmt.Errorf("no plan ID from previous step")
	}

	resp, err := send(http.MethodGet, "/v1/plans/"+planID+"/report?format="+format, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var out struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode url: %w", err)
		}
		if out.URL == "" {
			return fmt.Errorf("empty report url")
		}
		fmt.Printf("(url) ")
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(data, []byte(prefix)) {
		return fmt.Errorf("unexpected %s content (%d bytes)", format, len(data))
	}
	fmt.Printf("(%d bytes) ", len(data))
	return nil
}

func smokeInput() map[string]any {
	return map[string]any{
		"user_id":                userID,
		"sex":                    "male",
		"dob":                    "1990-05-04",
		"height_cm":              180,
		"weight_kg":              86,
		"training_age":           "1-2y",
		"activity_level":         "moderate",
		"equipment":              []string{"dumbbells", "bands", "bodyweight"},
		"primary_goal":           "fat_loss",
		"goal_duration_weeks":    12,
		"diet_type":              "vegetarian",
		"allergies":              []string{},
		"restricted_foods":       []string{},
		"preferred_foods":        []string{},
		"training_days_per_week": 4,
		"session_length_min":     45,
	}
}

func send(method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)
	return client.Do(req)
}

func doJSON(method, path string, payload any, wantStatus int, out any) error {
	resp, err := send(method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
