// Package vesync is a client for the VeSync cloud API used by Levoit air
// purifiers and humidifiers.
//
// The vendor API has undocumented rate limits and fragile session semantics,
// so the client is deliberately conservative: all operations on one client
// are strictly serialized, outbound requests are paced to at most one per
// second and sixty per minute, throttle rejections are retried with bounded
// exponential backoff, and every call is followed by a short settling pause.
//
// Typical use:
//
//	client, err := vesync.NewClient(vesync.Config{
//		Email:    email,
//		Password: password,
//	})
//	if err != nil {
//		// ...
//	}
//	defer client.Close()
//
//	if err := client.StartSession(ctx); err != nil {
//		// ...
//	}
//
//	devices, err := client.GetDevices(ctx)
//	if err != nil {
//		// ...
//	}
//	for _, p := range devices.Purifiers {
//		ok, _ := p.SetPower(ctx, true)
//		_ = ok
//	}
//
// StartSession also starts a background re-login every 55 minutes; Close
// stops it. The host integration surface is the four calls StartSession,
// GetDevices, GetDeviceInfo and SendCommand; the typed Purifier and
// Humidifier methods are conveniences over the latter two.
package vesync
