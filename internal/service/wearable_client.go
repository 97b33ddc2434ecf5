package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"biotrack-data/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Wearable vendor endpoints (WHOOP developer API).
const (
	wearableAuthURL  = "https://api.prod.whoop.com/oauth/oauth2/auth"
	wearableTokenURL = "https://api.prod.whoop.com/oauth/oauth2/token"
	wearableAPIBase  = "https://api.prod.whoop.com/developer/v1"

	wearableScopes = "read:recovery read:cycles read:sleep read:workout read:profile read:body_measurement"
)

// wearableBiomarkerMapping vendor metric -> catalog code.
var wearableBiomarkerMapping = map[string]string{
	"heart_rate":         "HR",
	"resting_heart_rate": "RHR",
	"hrv":                "HRV",
	"respiratory_rate":   "RESP_RATE",
	"spo2":               "SPO2",
	"skin_temp":          "TEMP",
	"calories":           "CALORIES",
	"weight":             "WEIGHT",
	"body_fat":           "BFAT_PCT",
}

// WearableToken OAuth token pair returned by the vendor.
type WearableToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type wearableBodyMeasurement struct {
	HeightMeter    float64 `json:"height_meter"`
	WeightKilogram float64 `json:"weight_kilogram"`
	MaxHeartRate   int     `json:"max_heart_rate"`
}

// WearableClient polls the wearable vendor API and turns responses into
// ingest candidates. Token storage and scheduling live outside this core.
type WearableClient struct {
	httpClient   *resty.Client
	clientID     string
	clientSecret string
	redirectURI  string
	logger       *zap.Logger
}

func NewWearableClient(baseURL, clientID, clientSecret, redirectURI string, logger *zap.Logger) *WearableClient {
	if baseURL == "" {
		baseURL = wearableAPIBase
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &WearableClient{
		httpClient:   client,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		logger:       logger,
	}
}

// AuthURL the vendor authorization URL the user is redirected to.
func (c *WearableClient) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", wearableScopes)
	q.Set("state", state)
	return wearableAuthURL + "?" + q.Encode()
}

// ExchangeCode swaps an authorization code for a token pair.
func (c *WearableClient) ExchangeCode(ctx context.Context, code string) (*WearableToken, error) {
	token := &WearableToken{}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "authorization_code",
			"code":          code,
			"client_id":     c.clientID,
			"client_secret": c.clientSecret,
			"redirect_uri":  c.redirectURI,
		}).
		SetResult(token).
		Post(wearableTokenURL)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange wearable auth code: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("wearable token exchange returned %d", resp.StatusCode())
	}
	return token, nil
}

// FetchBodyMeasurements pulls the latest body measurements and maps them to
// raw candidates; the ingest pipeline standardizes them like any upload.
func (c *WearableClient) FetchBodyMeasurements(ctx context.Context, accessToken string) ([]domain.ParseCandidate, error) {
	body := &wearableBodyMeasurement{}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(body).
		Get("/user/measurement/body")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wearable body measurements: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("wearable body measurement request returned %d", resp.StatusCode())
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var out []domain.ParseCandidate
	if body.WeightKilogram > 0 {
		out = append(out, domain.ParseCandidate{
			OriginalName:  wearableBiomarkerMapping["weight"],
			ValueRaw:      strconv.FormatFloat(body.WeightKilogram, 'f', -1, 64),
			UnitRaw:       "kg",
			SampleTimeRaw: now,
		})
	}
	if body.HeightMeter > 0 {
		out = append(out, domain.ParseCandidate{
			OriginalName:  "HEIGHT",
			ValueRaw:      strconv.FormatFloat(body.HeightMeter*100, 'f', -1, 64),
			UnitRaw:       "cm",
			SampleTimeRaw: now,
		})
	}
	c.logger.Debug("fetched wearable body measurements", zap.Int("candidates", len(out)))
	return out, nil
}
