package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"service-market-gamification/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Referral XP constants. The registration reward depends on the referrer's
// track; the redeemer always gets half of their own track's registration
// reward.
const (
	ExecutorReferralXP = 250
	ClientReferralXP   = 150

	// One-time bonus when a referred executor buys their first subscription.
	SubscriptionBonusXP     = 300
	SubscriptionBonusAmount = 500.0
)

// ReferralService implements code generation, redemption, and the reward
// fan-out. All XP flows through GamificationService.AddXP so level
// resolution and achievement evaluation fire for both parties.
type ReferralService struct {
	DB           *gorm.DB
	Gamification *GamificationService

	now func() time.Time
}

func NewReferralService(db *gorm.DB, gamification *GamificationService) *ReferralService {
	return &ReferralService{DB: db, Gamification: gamification, now: time.Now}
}

func registrationXP(role models.Role) int {
	if role == models.RoleExecutor {
		return ExecutorReferralXP
	}
	return ClientReferralXP
}

func codePrefix(role models.Role) string {
	if role == models.RoleExecutor {
		return "EXE"
	}
	return "CLI"
}

// CreateReferralCode lazily generates the user's code. Idempotent: an
// existing code is returned unchanged. Generation retries on the (rare)
// collision against the uniqueness constraint.
func (s *ReferralService) CreateReferralCode(userID uint) (string, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if user.ReferralCode != nil && *user.ReferralCode != "" {
		return *user.ReferralCode, nil
	}

	prefix := codePrefix(user.Role)
	for attempt := 0; attempt < 10; attempt++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:5]
		code := prefix + suffix

		err := s.DB.Model(&user).Update("referral_code", code).Error
		if err == nil {
			return code, nil
		}
		if !isDuplicateKey(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("could not generate a unique referral code for user %d", userID)
}

// RewardInfo summarizes one party's referral reward.
type RewardInfo struct {
	UserID      uint   `json:"user_id"`
	XP          int    `json:"xp"`
	Description string `json:"description"`
}

// UseReferralResult is the structured outcome of a redemption attempt.
// Business rejections (invalid/own/already-used code) come back as
// Success=false with a human-readable message, not as an error.
type UseReferralResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Rewards *struct {
		Referrer RewardInfo `json:"referrer"`
		Referred RewardInfo `json:"referred"`
	} `json:"rewards,omitempty"`
}

// errRaceReferred signals that a concurrent redemption set referred_by_id
// between our check and our update.
var errRaceReferred = errors.New("referred_by_id already set")

// redeem links the redeemer to the referrer and records the two pending
// reward rows in one transaction. The conditional update is the guard
// against a concurrent redemption winning between validation and commit:
// losing it returns errRaceReferred and writes nothing.
func (s *ReferralService) redeem(referrerID, redeemerID uint, referrerXP, referredXP int) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND referred_by_id IS NULL", redeemerID).
			Update("referred_by_id", referrerID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errRaceReferred
		}

		err := tx.Model(&models.User{}).Where("id = ?", referrerID).
			Update("referral_count", gorm.Expr("referral_count + 1")).Error
		if err != nil {
			return err
		}

		rewards := []models.ReferralReward{
			{
				ID: uuid.NewString(), ReferrerID: referrerID, ReferredID: redeemerID,
				RewardType: models.RewardTypeXP, XPAmount: referrerXP,
				Description: fmt.Sprintf("Приглашение пользователя #%d", redeemerID),
			},
			{
				ID: uuid.NewString(), ReferrerID: referrerID, ReferredID: redeemerID,
				RewardType: models.RewardTypeXP, XPAmount: referredXP,
				Description: "Бонус за регистрацию по реферальному коду",
			},
		}
		return tx.Create(&rewards).Error
	})
}

// Redemption rejection messages, surfaced to the UI as-is.
const (
	MsgInvalidCode = "Недействительный реферальный код"
	MsgOwnCode     = "Нельзя использовать собственный реферальный код"
	MsgAlreadyUsed = "Вы уже использовали реферальный код"
)

// UseReferralCode links the redeemer to the code's owner and grants the
// asymmetric rewards. Validation order matters: invalid code, then own
// code, then already referred — the first failing check wins. The link and
// counters are committed in one transaction; the XP fan-out runs after the
// commit and cannot undo it.
func (s *ReferralService) UseReferralCode(userID uint, code string) (*UseReferralResult, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	code = strings.ToUpper(strings.TrimSpace(code))

	var referrer models.User
	err := s.DB.Where("referral_code = ?", code).First(&referrer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || code == "" {
		return &UseReferralResult{Success: false, Message: MsgInvalidCode}, nil
	}
	if err != nil {
		return nil, err
	}

	if referrer.ID == user.ID {
		return &UseReferralResult{Success: false, Message: MsgOwnCode}, nil
	}
	if user.ReferredByID != nil {
		return &UseReferralResult{Success: false, Message: MsgAlreadyUsed}, nil
	}

	referrerXP := registrationXP(referrer.Role)
	referredXP := registrationXP(user.Role) / 2

	err = s.redeem(referrer.ID, user.ID, referrerXP, referredXP)
	if errors.Is(err, errRaceReferred) {
		return &UseReferralResult{Success: false, Message: MsgAlreadyUsed}, nil
	}
	if err != nil {
		return nil, err
	}

	// Reward fan-out. Both grants run the full AddXP path (level resolution
	// + achievement evaluation); a failure here is logged, never unwound.
	if _, err := s.Gamification.AddXP(referrer.ID, referrerXP, "referral",
		fmt.Sprintf("Приглашение пользователя #%d", user.ID), nil); err != nil {
		log.Printf("[Referral] referrer %d reward failed: %v", referrer.ID, err)
	}
	if _, err := s.Gamification.AddXP(user.ID, referredXP, "referral_bonus",
		"Бонус за регистрацию по реферальному коду", nil); err != nil {
		log.Printf("[Referral] redeemer %d reward failed: %v", user.ID, err)
	}

	s.Gamification.Notifier.NotifyReferral(referrer.ID, "referral_used", map[string]any{
		"referred_id": user.ID, "xp": referrerXP,
	})
	s.Gamification.Notifier.NotifyReferral(user.ID, "referral_bonus", map[string]any{
		"referrer_id": referrer.ID, "xp": referredXP,
	})

	result := &UseReferralResult{Success: true, Message: "Реферальный код применён"}
	result.Rewards = &struct {
		Referrer RewardInfo `json:"referrer"`
		Referred RewardInfo `json:"referred"`
	}{
		Referrer: RewardInfo{UserID: referrer.ID, XP: referrerXP, Description: "Приглашённый пользователь"},
		Referred: RewardInfo{UserID: user.ID, XP: referredXP, Description: "Бонус за регистрацию"},
	}
	return result, nil
}

// RewardReferralSubscription pays the referrer a one-time bonus when the
// executor they invited buys their first subscription. Both parties must be
// on the executor track; anything else is a silent no-op. The bonus is
// marked paid immediately, unlike registration rewards which the payout
// sweep settles later.
func (s *ReferralService) RewardReferralSubscription(referredUserID uint) (bool, error) {
	var referred models.User
	if err := s.DB.First(&referred, referredUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	if referred.Role != models.RoleExecutor || referred.ReferredByID == nil {
		return false, nil
	}

	var referrer models.User
	if err := s.DB.First(&referrer, *referred.ReferredByID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if referrer.Role != models.RoleExecutor {
		return false, nil
	}

	// The referred executor must hold an active subscription; expired or
	// cancelled ones do not count.
	var subscriptions int64
	err := s.DB.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ?", referred.ID, models.SubscriptionStatusActive).
		Count(&subscriptions).Error
	if err != nil {
		return false, err
	}
	if subscriptions == 0 {
		return false, nil
	}

	// One bonus per referred user, ever.
	var existing int64
	err = s.DB.Model(&models.ReferralReward{}).
		Where("referrer_id = ? AND referred_id = ? AND reward_type = ?",
			referrer.ID, referred.ID, models.RewardTypeBonus).
		Count(&existing).Error
	if err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}

	now := s.now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		reward := models.ReferralReward{
			ID:           uuid.NewString(),
			ReferrerID:   referrer.ID,
			ReferredID:   referred.ID,
			RewardType:   models.RewardTypeBonus,
			RewardAmount: SubscriptionBonusAmount,
			XPAmount:     SubscriptionBonusXP,
			Description:  fmt.Sprintf("Подписка приглашённого мастера #%d", referred.ID),
			IsPaid:       true,
			PaidAt:       &now,
		}
		if err := tx.Create(&reward).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", referrer.ID).
			Update("referral_earnings", gorm.Expr("referral_earnings + ?", SubscriptionBonusAmount)).Error
	})
	if err != nil {
		return false, err
	}

	if _, err := s.Gamification.AddXP(referrer.ID, SubscriptionBonusXP, "referral_subscription",
		fmt.Sprintf("Подписка приглашённого мастера #%d", referred.ID), nil); err != nil {
		log.Printf("[Referral] subscription bonus XP for user %d failed: %v", referrer.ID, err)
	}

	s.Gamification.Notifier.NotifyReferral(referrer.ID, "referral_subscription", map[string]any{
		"referred_id": referred.ID, "xp": SubscriptionBonusXP, "amount": SubscriptionBonusAmount,
	})
	return true, nil
}

// ReferredUser is one row of the stats view.
type ReferredUser struct {
	ID        uint        `json:"id"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	Level     int         `json:"level"`
	CreatedAt time.Time   `json:"created_at"`
}

// ReferralStats is the read-only aggregation for the referral dashboard.
type ReferralStats struct {
	Code           string                  `json:"code"`
	TotalReferrals int                     `json:"total_referrals"`
	TotalEarnings  float64                 `json:"total_earnings"`
	Referrals      []ReferredUser          `json:"referrals"`
	Rewards        []models.ReferralReward `json:"rewards"`
	IsReferred     bool                    `json:"is_referred"`
}

// GetReferralStats aggregates the user's referral state. The code is
// generated lazily on first request.
func (s *ReferralService) GetReferralStats(userID uint) (*ReferralStats, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	code, err := s.CreateReferralCode(userID)
	if err != nil {
		return nil, err
	}

	var referred []models.User
	if err := s.DB.Where("referred_by_id = ?", userID).Order("created_at DESC").Find(&referred).Error; err != nil {
		return nil, err
	}
	referrals := make([]ReferredUser, 0, len(referred))
	for _, r := range referred {
		referrals = append(referrals, ReferredUser{
			ID: r.ID, Name: r.Name, Role: r.Role, Level: r.CurrentLevel, CreatedAt: r.CreatedAt,
		})
	}

	var rewards []models.ReferralReward
	if err := s.DB.Where("referrer_id = ?", userID).Order("created_at DESC").Find(&rewards).Error; err != nil {
		return nil, err
	}

	return &ReferralStats{
		Code:           code,
		TotalReferrals: user.ReferralCount,
		TotalEarnings:  user.ReferralEarnings,
		Referrals:      referrals,
		Rewards:        rewards,
		IsReferred:     user.ReferredByID != nil,
	}, nil
}
