package auth

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/repository"
)

// 対象ユーザーがいない
var ErrUserNotFound = errors.New("user not found")

type ForceLogoutOutput struct {
	UserID          string `json:"user_id"`
	NewTokenVersion int    `json:"new_token_version"`
}

// token_versionを上げて発行済みのaccess tokenを全部無効にする
type ForceLogoutUsecase struct {
	userRepo repository.UserRepository
}

func NewForceLogoutUsecase(userRepo repository.UserRepository) *ForceLogoutUsecase {
	return &ForceLogoutUsecase{userRepo: userRepo}
}

func (u *ForceLogoutUsecase) Execute(ctx context.Context, targetUserID string) (ForceLogoutOutput, error) {
	var out ForceLogoutOutput

	id := strings.TrimSpace(targetUserID)
	if id == "" {
		return out, ErrUserNotFound
	}

	if err := u.userRepo.IncrementTokenVersion(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return out, ErrUserNotFound
		}
		return out, err
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.userRepo.FindByID(ctx, id)
	if err != nil {
		return out, err
	}
	if user == nil {
		return out, ErrUserNotFound
	}

	out.UserID = user.ID
	out.NewTokenVersion = user.TokenVersion
	return out, nil
}
