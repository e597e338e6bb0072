// Package clients holds HTTP clients for downstream services.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/freshfold/facility-api/pkg/circuitbreaker"
	"github.com/freshfold/facility-api/pkg/errors"
	"github.com/freshfold/facility-api/pkg/logger"
	"github.com/freshfold/facility-api/pkg/retry"
)

// DispatchClient is a client for the delivery dispatch service, which
// assigns packages and drivers to outgoing orders.
type DispatchClient struct {
	baseURL     string
	httpClient  *http.Client
	logger      logger.Logger
	retryConfig *retry.RetryConfig
	breaker     *circuitbreaker.CircuitBreaker
}

// PackageRequest represents the request to register a package for delivery
type PackageRequest struct {
	OrderID      string `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	CustomerName string `json:"customer_name"`
	Address      string `json:"address"`
	ItemCount    int    `json:"item_count"`
}

// PackageResponse represents the dispatch service's view of a package
type PackageResponse struct {
	PackageID      string `json:"package_id,omitempty"`
	OrderID        string `json:"order_id,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Status         string `json:"status,omitempty"`
	DriverID       string `json:"driver_id,omitempty"`
	Error          string `json:"error,omitempty"`
	Code           string `json:"code,omitempty"`
}

// NewDispatchClient creates a new DispatchClient
func NewDispatchClient(baseURL string, logger logger.Logger) *DispatchClient {
	httpClient := &http.Client{
		Timeout: 5 * time.Second,
	}

	retryConfig := &retry.RetryConfig{
		MaxAttempts: 3,
		BackoffStrategy: &retry.ExponentialBackoff{
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      1.5,
			JitterFactor:    0.2,
		},
		Logger: logger,
		RetryableErrors: []error{
			errors.ErrTimeout,
			errors.ErrTemporaryFailure,
			errors.ErrServiceUnavailable,
		},
	}

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 2,
	})

	return &DispatchClient{
		baseURL:     baseURL,
		httpClient:  httpClient,
		logger:      logger,
		retryConfig: retryConfig,
		breaker:     breaker,
	}
}

// Breaker exposes the circuit breaker for the admin metrics endpoint
func (c *DispatchClient) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// RegisterPackage registers an order with the dispatch service and returns
// the assigned package and tracking number.
func (c *DispatchClient) RegisterPackage(ctx context.Context, request *PackageRequest) (*PackageResponse, error) {
	url := fmt.Sprintf("%s/api/v1/packages", c.baseURL)

	var response *PackageResponse

	retryFunc := func() error {
		reqBody, err := json.Marshal(request)

		if err != nil {
			return errors.NewInternalError(fmt.Sprintf("failed to marshal request: %v", err))
		}

		res, err := c.doRequest(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))

		if err != nil {
			return err
		}

		response = res
		return nil
	}

	err := retry.Retry(ctx, retryFunc, c.retryConfig)

	if err != nil {
		c.logger.Error("Failed to register package after retries",
			"error", err,
			"orderID", request.OrderID)
		return nil, err
	}

	return response, nil
}

// GetPackageStatus gets the delivery status of a package
func (c *DispatchClient) GetPackageStatus(ctx context.Context, packageID string) (*PackageResponse, error) {
	url := fmt.Sprintf("%s/api/v1/packages/%s", c.baseURL, packageID)

	var response *PackageResponse

	retryFunc := func() error {
		res, err := c.doRequest(ctx, http.MethodGet, url, nil)

		if err != nil {
			return err
		}

		response = res
		return nil
	}

	err := retry.Retry(ctx, retryFunc, c.retryConfig)

	if err != nil {
		c.logger.Error("Failed to get package status after retries",
			"error", err,
			"packageID", packageID)
		return nil, err
	}

	return response, nil
}

// doRequest performs a single HTTP exchange guarded by the circuit breaker
// and classifies failures for the retry layer.
func (c *DispatchClient) doRequest(ctx context.Context, method, url string, body io.Reader) (*PackageResponse, error) {
	if !c.breaker.Allow() {
		return nil, errors.NewTemporaryError("dispatch service circuit open")
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)

	if err != nil {
		return nil, errors.NewInternalError(fmt.Sprintf("failed to create request: %v", err))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)

	if err != nil {
		c.breaker.Failure()

		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, errors.NewTimeoutError("dispatch request timed out")
		}
		return nil, errors.NewTemporaryError(fmt.Sprintf("failed to send request: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)

	if err != nil {
		c.breaker.Failure()
		return nil, errors.NewInternalError(fmt.Sprintf("failed to read response body: %v", err))
	}

	if resp.StatusCode >= 400 {
		c.breaker.Failure()

		if resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout {
			return nil, errors.NewTimeoutError("dispatch request timed out")
		}

		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusInternalServerError {
			return nil, errors.NewTemporaryError(fmt.Sprintf("dispatch service error: %d", resp.StatusCode))
		}

		return nil, errors.NewAppError(
			errors.ErrInternal,
			fmt.Sprintf("dispatch service returned error: %d", resp.StatusCode),
			resp.StatusCode,
			false,
		)
	}

	response := &PackageResponse{}

	if err := json.Unmarshal(respBody, response); err != nil {
		c.breaker.Failure()
		return nil, errors.NewInternalError(fmt.Sprintf("failed to parse response: %v", err))
	}

	if response.Error != "" {
		c.breaker.Failure()

		if response.Code == "TIMEOUT" {
			return nil, errors.NewTimeoutError(response.Error)
		}
		return nil, errors.NewTemporaryError(response.Error)
	}

	c.breaker.Success()
	return response, nil
}
