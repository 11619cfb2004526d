package services

import (
	"context"
	"testing"
	"time"

	"github.com/clamea-app/server/internal/common"
	"github.com/stretchr/testify/require"
)

func TestPasswordReset_EndToEnd(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.registerAccount(t, "anna@example.com", "Anna", "OldSecret1")

	require.NoError(t, f.reset.Request(ctx, "anna@example.com"))
	code := f.mailer.lastCode(t)

	require.NoError(t, f.reset.VerifyCode(ctx, "anna@example.com", code))
	// checking does not consume: the code is still good for the actual reset
	require.NoError(t, f.reset.VerifyCode(ctx, "anna@example.com", code))

	require.NoError(t, f.reset.Reset(ctx, "anna@example.com", code, "NewSecret2"))

	_, _, err := f.auth.Login(ctx, "anna@example.com", "NewSecret2")
	require.NoError(t, err)
	_, _, err = f.auth.Login(ctx, "anna@example.com", "OldSecret1")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	// the consumed code cannot reset again
	err = f.reset.Reset(ctx, "anna@example.com", code, "ThirdSecret3")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPasswordReset_UnknownEmail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.ErrorIs(t, f.reset.Request(ctx, "nobody@example.com"), common.ErrorNotFound)
	require.ErrorIs(t, f.reset.VerifyCode(ctx, "nobody@example.com", "1234"), common.ErrorNotFound)
	require.ErrorIs(t, f.reset.Reset(ctx, "nobody@example.com", "1234", "NewSecret2"), common.ErrorNotFound)
}

func TestPasswordReset_UnverifiedAccountLooksAbsent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// a staged, never-verified signup has no account to reset
	_, err := f.registration.Submit(ctx, "staged@example.com", "Staged", "Secret123")
	require.NoError(t, err)

	require.ErrorIs(t, f.reset.Request(ctx, "staged@example.com"), common.ErrorNotFound)
}

func TestPasswordReset_WrongCode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.registerAccount(t, "bob@example.com", "Bob", "OldSecret1")

	require.NoError(t, f.reset.Request(ctx, "bob@example.com"))
	code := f.mailer.lastCode(t)

	wrong := "0000"
	if wrong == code {
		wrong = "1111"
	}
	require.ErrorIs(t, f.reset.Reset(ctx, "bob@example.com", wrong, "NewSecret2"), common.ErrorNotFound)

	// the password is unchanged
	_, _, err := f.auth.Login(ctx, "bob@example.com", "OldSecret1")
	require.NoError(t, err)
}

func TestPasswordReset_ExpiredCodeLeavesPasswordUnchanged(t *testing.T) {
	cfg := testConfig()
	cfg.PasswordResetOTPTTL = -time.Minute
	f := newFixture(t, cfg)
	ctx := context.Background()
	f.registerAccount(t, "carol@example.com", "Carol", "OldSecret1")

	require.NoError(t, f.reset.Request(ctx, "carol@example.com"))
	code := f.mailer.lastCode(t)

	require.ErrorIs(t, f.reset.VerifyCode(ctx, "carol@example.com", code), common.ErrOTPExpired)
	require.ErrorIs(t, f.reset.Reset(ctx, "carol@example.com", code, "NewSecret2"), common.ErrOTPExpired)

	_, _, err := f.auth.Login(ctx, "carol@example.com", "OldSecret1")
	require.NoError(t, err)
}

func TestPasswordReset_RequestSupersedesEarlierCode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.registerAccount(t, "dave@example.com", "Dave", "OldSecret1")

	require.NoError(t, f.reset.Request(ctx, "dave@example.com"))
	firstCode := f.mailer.lastCode(t)

	require.NoError(t, f.reset.Request(ctx, "dave@example.com"))
	secondCode := f.mailer.lastCode(t)

	if firstCode != secondCode {
		require.ErrorIs(t, f.reset.VerifyCode(ctx, "dave@example.com", firstCode), common.ErrorNotFound)
	}
	require.NoError(t, f.reset.Reset(ctx, "dave@example.com", secondCode, "NewSecret2"))
}

func TestPasswordReset_DoesNotTouchRegistrationCodes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.registerAccount(t, "erin@example.com", "Erin", "OldSecret1")

	// a fresh staging for a different address
	_, err := f.registration.Submit(ctx, "new@example.com", "New", "Secret123")
	require.NoError(t, err)
	regCode := f.mailer.lastCode(t)

	require.NoError(t, f.reset.Request(ctx, "erin@example.com"))

	// the registration code still verifies after reset activity
	_, _, err = f.registration.Verify(ctx, "new@example.com", regCode)
	require.NoError(t, err)
}
