package domain

import (
	"context"
	"errors"
)

type CreateActorRequest struct {
	Name         string
	Email        string
	Role         Role
	SponsorID    string
	ReferralCode string
	Password     string
}

type UpdateActorRequest struct {
	ID     string
	Name   *string
	Role   *Role
	Active *bool
}

type SetSponsorRequest struct {
	ID        string
	SponsorID string
}

type ListActorRequest struct {
	Role       string
	ActiveOnly bool
}

type Service interface {
	Create(ctx context.Context, req CreateActorRequest) (Actor, error)
	Get(ctx context.Context, id string) (Actor, error)
	List(ctx context.Context, req ListActorRequest) ([]Actor, error)
	Update(ctx context.Context, req UpdateActorRequest) (Actor, error)
	SetSponsor(ctx context.Context, req SetSponsorRequest) (Actor, error)
	Team(ctx context.Context, leaderID string) ([]Actor, error)
	Authenticate(ctx context.Context, email string, password string) (Actor, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrSelfSponsor         = errors.New("self_sponsor")
	ErrSponsorNotFound     = errors.New("sponsor_not_found")
	ErrEmailTaken          = errors.New("email_taken")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrNotFound            = errors.New("not_found")
)
