// Package service implements the reconciliation engine: the multi-step sagas
// that keep the identity provider and the profile store eventually consistent.
// No transaction spans the two systems; correctness rests on idempotent steps
// and self-heal-on-read, not rollback. The engine is stateless between calls
// and safe for concurrent use.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"accountd/internal/account/domain"
	"accountd/internal/account/registry"
	"accountd/internal/account/repository"
	"accountd/internal/docstore"
	"accountd/internal/identity"
	"accountd/platform/apperr"
	"accountd/platform/logger"
)

// VerificationScheduler enqueues verification-email delivery after a
// successful registration. Delivery is fire-and-forget.
type VerificationScheduler interface {
	EnqueueVerificationEmail(ctx context.Context, email string) error
}

// Engine orchestrates Register, Login, VerifyToken, UpdateUsername and
// DeleteAccount across the identity provider, the username registry and the
// profile repository.
type Engine struct {
	idp       identity.Provider
	store     docstore.Store
	profiles  *repository.Repository
	usernames *registry.Registry
	verifier  VerificationScheduler
	log       *logger.Logger
}

// New creates an Engine. The raw store handle is used only for the atomic
// multi-key delete in DeleteAccount, which spans both namespaces.
func New(idp identity.Provider, store docstore.Store, profiles *repository.Repository, usernames *registry.Registry, log *logger.Logger) *Engine {
	return &Engine{
		idp:       idp,
		store:     store,
		profiles:  profiles,
		usernames: usernames,
		log:       log,
	}
}

// SetVerificationScheduler wires the optional verification-email scheduler.
func (e *Engine) SetVerificationScheduler(v VerificationScheduler) {
	e.verifier = v
}

// Register creates an identity record, a profile and a username reservation
// for a new user.
//
// The username and email pre-checks are cheapest-first and non-atomic with
// the writes that follow; concurrent registrations racing on the same
// username can both pass the check, after which the registry resolves to the
// last writer. A failed registry write is non-fatal: the profile document is
// authoritative and the registry catches up on a later read.
func (e *Engine) Register(ctx context.Context, email, username, password, displayName string) (domain.Profile, error) {
	username = registry.Normalize(username)

	taken, err := e.usernames.IsTaken(ctx, username)
	if err != nil {
		e.log.StoreError("register.username_check", err)
		return domain.Profile{}, apperr.StoreFailure("username availability check failed", err)
	}
	if taken {
		return domain.Profile{}, apperr.UsernameConflict("username already exists")
	}

	// An email known to the identity provider but absent from the profile
	// store is drift to be healed, not a conflict, so only the profile store
	// decides whether the email is taken.
	if _, err := e.profiles.FindByEmail(ctx, email); err == nil {
		return domain.Profile{}, apperr.EmailConflict("email already exists")
	} else if !errors.Is(err, docstore.ErrNotFound) {
		e.log.StoreError("register.email_check", err)
		return domain.Profile{}, apperr.StoreFailure("email availability check failed", err)
	}

	rec, err := e.idp.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		// Identity exists without a profile: reuse its uid.
		e.log.DriftHealed(rec.UID, username, "register")
	case errors.Is(err, identity.ErrNotFound):
		rec, err = e.idp.CreateUser(ctx, email, password, displayName)
		if err != nil {
			// Not retried here: the provider may have partial side effects,
			// and a blind retry risks a duplicate identity for the email.
			e.log.ProviderError("register.create_user", err)
			return domain.Profile{}, apperr.ProviderFailure("identity creation failed", err)
		}
	default:
		e.log.ProviderError("register.identity_lookup", err)
		return domain.Profile{}, apperr.ProviderFailure("identity lookup failed", err)
	}

	profile := repository.MakeDefault(rec.UID, username, &email, displayName)
	if err := e.profiles.Put(ctx, rec.UID, profile); err != nil {
		e.log.StoreError("register.profile_write", err)
		return domain.Profile{}, apperr.StoreFailure("profile write failed", err)
	}

	if err := e.usernames.Reserve(ctx, username, rec.UID); err != nil {
		e.log.RegistryLag("register", username, rec.UID, err)
	}

	if e.verifier != nil {
		if err := e.verifier.EnqueueVerificationEmail(ctx, email); err != nil {
			e.log.Warn("verification email enqueue failed", "email", email, "error", err.Error())
		}
	}

	e.log.AuthEvent("register", email, true, "")
	return profile, nil
}

// Login resolves the identity record for the email, self-heals a missing
// profile and issues an exchangeable token. Password correctness is the
// identity provider's responsibility; every failure collapses to the uniform
// invalid-credentials error so callers cannot probe which emails exist.
func (e *Engine) Login(ctx context.Context, email string) (string, domain.Profile, error) {
	rec, err := e.idp.GetUserByEmail(ctx, email)
	if err != nil {
		e.log.AuthEvent("login", email, false, err.Error())
		return "", domain.Profile{}, apperr.InvalidCredentials()
	}

	profile, err := e.profileOrHeal(ctx, rec, "login")
	if err != nil {
		e.log.AuthEvent("login", email, false, err.Error())
		return "", domain.Profile{}, apperr.InvalidCredentials()
	}

	token, err := e.idp.CreateExchangeToken(ctx, rec.UID)
	if err != nil {
		e.log.ProviderError("login.exchange_token", err)
		return "", domain.Profile{}, apperr.InvalidCredentials()
	}

	e.log.AuthEvent("login", email, true, "")
	return token, profile, nil
}

// VerifyToken verifies an ID token and returns the owning profile,
// manufacturing a default profile first if the uid only exists at the
// identity provider.
func (e *Engine) VerifyToken(ctx context.Context, token string) (domain.Profile, error) {
	claims, err := e.idp.VerifyIDToken(ctx, token)
	if err != nil {
		e.log.AuthEvent("verify_token", "", false, err.Error())
		return domain.Profile{}, apperr.InvalidToken()
	}

	profile, err := e.profiles.Get(ctx, claims.UID)
	if errors.Is(err, docstore.ErrNotFound) {
		rec, rerr := e.idp.GetUserByUID(ctx, claims.UID)
		if rerr != nil {
			e.log.ProviderError("verify_token.identity_lookup", rerr)
			return domain.Profile{}, apperr.InvalidToken()
		}
		return e.healProfile(ctx, rec, "verify_token")
	}
	if err != nil {
		e.log.StoreError("verify_token.profile_read", err)
		return domain.Profile{}, apperr.StoreFailure("profile read failed", err)
	}
	return profile, nil
}

// UpdateUsername changes the profile's username and display name. If the
// desired username belongs to another uid, the smallest free numeric-suffix
// variant is used instead. The profile write and the registry writes are not
// atomic; a failed registry write lags behind the authoritative profile.
func (e *Engine) UpdateUsername(ctx context.Context, uid, desiredUsername, displayName string) (domain.Profile, error) {
	desired := registry.Normalize(desiredUsername)

	effective := desired
	owner, err := e.usernames.LookupUID(ctx, desired)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		// free
	case err != nil:
		e.log.StoreError("update_username.lookup", err)
		return domain.Profile{}, apperr.StoreFailure("username lookup failed", err)
	case owner != uid:
		effective, err = e.freeUsername(ctx, desired, uid)
		if err != nil {
			e.log.StoreError("update_username.dedupe", err)
			return domain.Profile{}, apperr.StoreFailure("username lookup failed", err)
		}
	}

	current, err := e.profiles.Get(ctx, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Profile{}, apperr.ProfileNotFound("profile not found")
	}
	if err != nil {
		e.log.StoreError("update_username.profile_read", err)
		return domain.Profile{}, apperr.StoreFailure("profile read failed", err)
	}

	updated := current
	updated.Username = effective
	updated.DisplayName = displayName
	if err := e.profiles.Put(ctx, uid, updated); err != nil {
		e.log.StoreError("update_username.profile_write", err)
		return domain.Profile{}, apperr.StoreFailure("profile write failed", err)
	}

	if effective != current.Username {
		if current.Username != "" {
			if err := e.usernames.Release(ctx, current.Username); err != nil {
				e.log.RegistryLag("update_username.release", current.Username, uid, err)
			}
		}
		if err := e.usernames.Reserve(ctx, effective, uid); err != nil {
			e.log.RegistryLag("update_username.reserve", effective, uid, err)
		}
	}

	return updated, nil
}

// DeleteAccount removes the registry entry and the profile in one atomic
// batch, then deletes the identity record. Local data goes first because
// re-registration can recreate it, while identity deletion is irreversible.
// A uid with no profile reports success=false; there is nothing to delete.
func (e *Engine) DeleteAccount(ctx context.Context, uid string) (bool, error) {
	current, err := e.profiles.Get(ctx, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		e.log.StoreError("delete_account.profile_read", err)
		return false, apperr.StoreFailure("profile read failed", err)
	}

	keys := make([]docstore.Key, 0, 2)
	if current.Username != "" {
		keys = append(keys, docstore.Key{Collection: registry.Collection, ID: registry.Normalize(current.Username)})
	}
	keys = append(keys, docstore.Key{Collection: repository.Collection, ID: uid})

	if err := e.store.BatchDelete(ctx, keys); err != nil {
		e.log.StoreError("delete_account.batch_delete", err)
		return false, apperr.StoreFailure("account data delete failed", err)
	}

	if err := e.idp.DeleteUser(ctx, uid); err != nil {
		// The orphaned identity record is accepted drift: it self-heals into
		// a fresh default profile if the user ever authenticates again.
		e.log.ProviderError("delete_account.identity_delete", err)
	}

	e.log.AuthEvent("delete_account", currentEmail(current), true, "")
	return true, nil
}

// GetProfile returns the profile for a uid, self-healing drift when the uid
// exists only at the identity provider.
func (e *Engine) GetProfile(ctx context.Context, uid string) (domain.Profile, error) {
	profile, err := e.profiles.Get(ctx, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		rec, rerr := e.idp.GetUserByUID(ctx, uid)
		if errors.Is(rerr, identity.ErrNotFound) {
			return domain.Profile{}, apperr.ProfileNotFound("profile not found")
		}
		if rerr != nil {
			e.log.ProviderError("get_profile.identity_lookup", rerr)
			return domain.Profile{}, apperr.ProviderFailure("identity lookup failed", rerr)
		}
		return e.healProfile(ctx, rec, "get_profile")
	}
	if err != nil {
		e.log.StoreError("get_profile.profile_read", err)
		return domain.Profile{}, apperr.StoreFailure("profile read failed", err)
	}
	return profile, nil
}

// GetProfileByUsername resolves a username through the registry and returns
// the owning profile.
func (e *Engine) GetProfileByUsername(ctx context.Context, username string) (domain.Profile, error) {
	uid, err := e.usernames.LookupUID(ctx, username)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Profile{}, apperr.ProfileNotFound("profile not found")
	}
	if err != nil {
		e.log.StoreError("get_profile_by_username.lookup", err)
		return domain.Profile{}, apperr.StoreFailure("username lookup failed", err)
	}
	return e.GetProfile(ctx, uid)
}

// profileOrHeal loads the uid's profile, manufacturing it when absent.
func (e *Engine) profileOrHeal(ctx context.Context, rec identity.Record, origin string) (domain.Profile, error) {
	profile, err := e.profiles.Get(ctx, rec.UID)
	if errors.Is(err, docstore.ErrNotFound) {
		return e.healProfile(ctx, rec, origin)
	}
	if err != nil {
		return domain.Profile{}, apperr.StoreFailure("profile read failed", err)
	}
	return profile, nil
}

// healProfile replays Register's profile and registry steps for a uid that
// exists at the identity provider without local state. The username derives
// from the email's local part (uid-derived when the record has no email),
// de-duplicated with the same suffix rule as UpdateUsername. A second call
// for the same uid finds the profile and never runs, so healing is
// idempotent.
func (e *Engine) healProfile(ctx context.Context, rec identity.Record, origin string) (domain.Profile, error) {
	base := usernameFromRecord(rec)
	name, err := e.freeUsername(ctx, base, rec.UID)
	if err != nil {
		e.log.StoreError("heal.username_dedupe", err)
		return domain.Profile{}, apperr.StoreFailure("username lookup failed", err)
	}

	var email *string
	if rec.Email != "" {
		email = &rec.Email
	}
	displayName := rec.DisplayName
	if displayName == "" {
		displayName = name
	}

	profile := repository.MakeDefault(rec.UID, name, email, displayName)
	if err := e.profiles.Put(ctx, rec.UID, profile); err != nil {
		e.log.StoreError("heal.profile_write", err)
		return domain.Profile{}, apperr.StoreFailure("profile write failed", err)
	}

	if err := e.usernames.Reserve(ctx, name, rec.UID); err != nil {
		e.log.RegistryLag("heal", name, rec.UID, err)
	}

	e.log.DriftHealed(rec.UID, name, origin)
	return profile, nil
}

// freeUsername returns base if it is unregistered or already owned by uid,
// else the first of base1, base2, ... that is. Deterministic given the
// registry contents.
func (e *Engine) freeUsername(ctx context.Context, base, uid string) (string, error) {
	base = registry.Normalize(base)
	candidate := base
	for i := 1; ; i++ {
		owner, err := e.usernames.LookupUID(ctx, candidate)
		if errors.Is(err, docstore.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if owner == uid {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
}

// usernameFromRecord derives a default username from an identity record:
// the lowercased local part of the email, or a uid-derived fallback when the
// record has no email.
func usernameFromRecord(rec identity.Record) string {
	if rec.Email != "" {
		if at := strings.Index(rec.Email, "@"); at > 0 {
			return registry.Normalize(rec.Email[:at])
		}
		return registry.Normalize(rec.Email)
	}

	uid := rec.UID
	if len(uid) > 8 {
		uid = uid[:8]
	}
	return "user-" + strings.ToLower(uid)
}

func currentEmail(profile domain.Profile) string {
	if profile.Email == nil {
		return ""
	}
	return *profile.Email
}
