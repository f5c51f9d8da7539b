package service

import (
	"context"
	"math"

	apperrors "healthtrack/backend/internal/errors"
	"healthtrack/backend/internal/model"
	"healthtrack/backend/internal/repository"
)

const maxBodyWeightKg = 500

type ProfileService struct {
	userRepo *repository.UserRepository
}

func NewProfileService(userRepo *repository.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*model.User, *apperrors.APIError) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to query user")
	}
	user.PasswordHash = ""
	return user, nil
}

// SetBodyWeight records the weight used for calorie estimates. Nil clears it.
func (s *ProfileService) SetBodyWeight(ctx context.Context, userID string, bodyWeightKg *float64) (*model.User, *apperrors.APIError) {
	if bodyWeightKg != nil {
		w := *bodyWeightKg
		if math.IsNaN(w) || w <= 0 || w > maxBodyWeightKg {
			return nil, apperrors.BadRequest("invalid_body_weight", "bodyWeightKg must be within (0, 500]")
		}
	}

	err := s.userRepo.UpdateBodyWeight(ctx, userID, bodyWeightKg)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to update body weight")
	}
	return s.Get(ctx, userID)
}
