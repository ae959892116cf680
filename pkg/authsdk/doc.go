/*
Package authsdk provides a client SDK for the gatehouse authentication service.

# Client and Session

The package is organized around two types:

  - Client: public endpoints and login. It holds the shared transport secret
    and encrypts the username and password before they are sent.
  - Session: the result of a login. It carries the session token, the refresh
    token and the permission snapshot, and renews the session token on demand.

	client, err := authsdk.NewClient("https://auth.example.com", transportSecret)
	if err != nil {
		return err
	}

	session, err := client.Login(ctx, "alice", "correct horse battery staple", authsdk.LoginOptions{})
	if err != nil {
		return err
	}

	me, err := session.Me(ctx)

# Automatic Refresh

Session methods renew the session token 30 seconds before it expires. A
refresh re-reads the user's permissions, so revoked permissions disappear
from the next session token. The refresh token itself is not rotated.

# Errors

Every non-2xx response is returned as an *APIError. APIError.Is compares
codes, so the predefined values work with errors.Is:

	_, err := client.Login(ctx, username, password, authsdk.LoginOptions{})
	var apiErr *authsdk.APIError
	switch {
	case errors.Is(err, authsdk.ErrAccountLocked):
		errors.As(err, &apiErr)
		fmt.Printf("locked, retry in %d minutes\n", apiErr.RemainingMinutes)
	case errors.Is(err, authsdk.ErrTwoFactorRequired):
		// prompt for a code and retry with LoginOptions.OTP
	case errors.Is(err, authsdk.ErrInvalidCredentials):
		// wrong username or password
	}

# Thread Safety

Sessions are safe for concurrent use. Concurrent callers that find the
session token expired trigger a single refresh.
*/
package authsdk
