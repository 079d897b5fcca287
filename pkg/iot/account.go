package iot

import (
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"liyu1981.xyz/device-telemetry-service/pkg/common"
	"liyu1981.xyz/device-telemetry-service/pkg/models"
)

const minPasswordLength = 8

var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

func (i *IOT) registerAccount(username, email, password string) (*models.Account, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTAccount),
	)

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, NewMalformedRequestError("Fields 'username' and 'password' are required", missing...)
	}
	if len(password) < minPasswordLength {
		return nil, NewMalformedRequestError("Password must be at least 8 characters", "password")
	}

	var existing int64
	if err := i.Db.Conn.Model(&models.Account{}).Where("username = ?", username).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, NewMalformedRequestError("Username already taken", "username")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    i.now(),
	}
	if err := i.Db.Conn.Create(&account).Error; err != nil {
		return nil, err
	}

	if _, err := i.Storage.GetProfile(account.ID); err != nil {
		return nil, err
	}

	logger.Info("Registered account", zap.Uint("account_id", account.ID), zap.String("username", username))
	return &account, nil
}

func (i *IOT) loginAccount(username, password string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, NewMalformedRequestError("Fields 'username' and 'password' are required")
	}

	var account models.Account
	err := i.Db.Conn.Where("username = ?", username).First(&account).Error
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	hash := []byte(account.PasswordHash)
	if err != nil {
		// keep the unknown user path as slow as a wrong password
		hash = dummyPasswordHash
	}
	if cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(password)); cmpErr != nil || err != nil {
		if cmpErr != nil && !errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword) {
			common.GetLoggerWith(
				common.LoggerNameIOTCore,
				zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTAccount),
			).Error("Password hash compare failed", zap.Uint("account_id", account.ID), zap.Error(cmpErr))
		}
		return nil, NewMalformedRequestError("Invalid credentials")
	}

	return &account, nil
}

func (i *IOT) getAccount(id uint) (*models.Account, error) {
	var account models.Account
	err := i.Db.Conn.First(&account, id).Error
	if isNotFound(err) {
		return nil, NewNotFoundError("Account not found")
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

type IAccountImpl struct {
	iot *IOT
}

func (ia *IAccountImpl) Register(username, email, password string) (*models.Account, error) {
	return ia.iot.registerAccount(username, email, password)
}

func (ia *IAccountImpl) Login(username, password string) (*models.Account, error) {
	return ia.iot.loginAccount(username, password)
}

func (ia *IAccountImpl) GetAccount(id uint) (*models.Account, error) {
	return ia.iot.getAccount(id)
}

func (i *IOT) GetIAccount() IAccount {
	return &IAccountImpl{iot: i}
}
