package vesync

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
)

// bypassSource is the declared origin of bypass payloads.
const bypassSource = "APP"

// SendCommand issues a device write through the vendor's bypass endpoint.
// It returns true only when the vendor acknowledged with its success code;
// any other code or a transport failure is logged and yields false without
// an error. An error is returned only for local misuse (no session, device
// not bound to this client) or context cancellation.
func (c *Client) SendCommand(ctx context.Context, dev *Device, method string, data any) (bool, error) {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	if _, err := c.bypass(ctx, dev, http.MethodPut, method, data); err != nil {
		if isUsageError(err) {
			return false, err
		}
		c.log.Warn("device command failed",
			logField("device", dev.String()),
			logField("method", method),
			logField("error", err.Error()),
		)
		return false, nil
	}

	return true, nil
}

// GetDeviceInfo reads a device's status through the bypass endpoint and
// returns the decoded inner result for the caller to interpret per device
// type. A vendor rejection or transport failure is logged and yields nil
// without an error.
func (c *Client) GetDeviceInfo(ctx context.Context, dev *Device) (json.RawMessage, error) {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	// dev.statusMethod is read before the dispatch guards run.
	if dev == nil {
		return nil, errDeviceNotBound
	}

	result, err := c.bypass(ctx, dev, http.MethodPost, dev.statusMethod, struct{}{})
	if err != nil {
		if isUsageError(err) {
			return nil, err
		}
		c.log.Warn("device status read failed",
			logField("device", dev.String()),
			logField("error", err.Error()),
		)
		return nil, nil
	}

	return result, nil
}

// bypass builds the bypassV2 envelope for one device call and submits it
// through the retry and pacing chain. Must be called with callMu held.
// Status reads go out as POST, commands as PUT; the endpoint is the same.
func (c *Client) bypass(ctx context.Context, dev *Device, verb, method string, data any) (json.RawMessage, error) {
	sess := c.session
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	if dev == nil || dev.client != c {
		return nil, errDeviceNotBound
	}

	req := bypassRequest{
		authedRequest: c.authedRequest(sess),
		Method:        "bypassV2",
		DebugMode:     false,
		DeviceRegion:  dev.Region,
		CID:           dev.CID,
		ConfigModule:  dev.ConfigModule,
		Payload: bypassPayload{
			Method: method,
			Source: bypassSource,
			Data:   data,
		},
	}

	var result bypassResult
	err := c.call(ctx, c.authed, verb, bypassPath, &req, nil, &result)

	// Single-device calls settle regardless of outcome.
	c.settle(ctx, c.settleSingle)

	if err != nil {
		return nil, err
	}

	// The bypass result nests a second code from the device itself.
	if result.Code != successCode {
		return nil, &APIError{Code: result.Code, Msg: "device rejected " + method}
	}

	return result.Result, nil
}

// errDeviceNotBound reports a device handle used with a client other than
// the one that discovered it.
var errDeviceNotBound = errors.New("vesync: device does not belong to this client")

// isUsageError distinguishes local misuse and cancellation, which surface as
// errors, from vendor-side failures, which the operation boundary converts
// to benign values.
func isUsageError(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, errDeviceNotBound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
