package services

import (
	"strings"
	"testing"
	"time"

	"service-market-gamification/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReferralService(t *testing.T) (*ReferralService, *GamificationService) {
	t.Helper()
	gamification := newTestService(t)
	return NewReferralService(gamification.DB, gamification), gamification
}

func TestCreateReferralCode(t *testing.T) {
	refs, svc := newReferralService(t)
	client := createUser(t, svc.DB, models.RoleClient)
	executor := createUser(t, svc.DB, models.RoleExecutor)

	code, err := refs.CreateReferralCode(client.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(code, "CLI"))
	assert.Len(t, code, 8)

	again, err := refs.CreateReferralCode(client.ID)
	require.NoError(t, err)
	assert.Equal(t, code, again, "code generation is idempotent")

	execCode, err := refs.CreateReferralCode(executor.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(execCode, "EXE"))
	assert.NotEqual(t, code, execCode)

	_, err = refs.CreateReferralCode(404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUseReferralCodeSuccess(t *testing.T) {
	refs, svc := newReferralService(t)
	referrer := createUser(t, svc.DB, models.RoleClient)
	redeemer := createUser(t, svc.DB, models.RoleClient)

	code, err := refs.CreateReferralCode(referrer.ID)
	require.NoError(t, err)

	result, err := refs.UseReferralCode(redeemer.ID, code)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.Rewards)
	assert.Equal(t, ClientReferralXP, result.Rewards.Referrer.XP)
	assert.Equal(t, ClientReferralXP/2, result.Rewards.Referred.XP)

	gotReferrer := reload(t, svc.DB, referrer.ID)
	gotRedeemer := reload(t, svc.DB, redeemer.ID)
	require.NotNil(t, gotRedeemer.ReferredByID)
	assert.Equal(t, referrer.ID, *gotRedeemer.ReferredByID)
	assert.Equal(t, 1, gotReferrer.ReferralCount)

	var referrerEntry, redeemerEntry models.XPHistory
	require.NoError(t, svc.DB.
		Where("user_id = ? AND source = ?", referrer.ID, "referral").
		First(&referrerEntry).Error)
	assert.Equal(t, ClientReferralXP, referrerEntry.Amount)
	require.NoError(t, svc.DB.
		Where("user_id = ? AND source = ?", redeemer.ID, "referral_bonus").
		First(&redeemerEntry).Error)
	assert.Equal(t, ClientReferralXP/2, redeemerEntry.Amount)

	var rewards []models.ReferralReward
	require.NoError(t, svc.DB.Where("referrer_id = ?", referrer.ID).Find(&rewards).Error)
	assert.Len(t, rewards, 2)
	for _, r := range rewards {
		assert.False(t, r.IsPaid, "registration rewards wait for the payout sweep")
	}
}

func TestUseReferralCodeSecondAttemptRejected(t *testing.T) {
	refs, svc := newReferralService(t)
	referrer := createUser(t, svc.DB, models.RoleClient)
	redeemer := createUser(t, svc.DB, models.RoleClient)

	code, err := refs.CreateReferralCode(referrer.ID)
	require.NoError(t, err)

	first, err := refs.UseReferralCode(redeemer.ID, code)
	require.NoError(t, err)
	require.True(t, first.Success)

	countBefore := reload(t, svc.DB, referrer.ID).ReferralCount
	xpBefore := reload(t, svc.DB, redeemer.ID).ExperiencePoints

	second, err := refs.UseReferralCode(redeemer.ID, code)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, MsgAlreadyUsed, second.Message)

	assert.Equal(t, countBefore, reload(t, svc.DB, referrer.ID).ReferralCount)
	assert.Equal(t, xpBefore, reload(t, svc.DB, redeemer.ID).ExperiencePoints)
}

func TestUseReferralCodeLosesLinkRace(t *testing.T) {
	refs, svc := newReferralService(t)
	winner := createUser(t, svc.DB, models.RoleClient)
	loser := createUser(t, svc.DB, models.RoleClient)
	redeemer := createUser(t, svc.DB, models.RoleClient)

	// A concurrent redemption already linked the redeemer after the loser's
	// validation checks passed; only the conditional update can catch it.
	require.NoError(t, svc.DB.Model(&models.User{}).
		Where("id = ?", redeemer.ID).
		Update("referred_by_id", winner.ID).Error)

	err := refs.redeem(loser.ID, redeemer.ID, ClientReferralXP, ClientReferralXP/2)
	assert.ErrorIs(t, err, errRaceReferred)

	got := reload(t, svc.DB, redeemer.ID)
	require.NotNil(t, got.ReferredByID)
	assert.Equal(t, winner.ID, *got.ReferredByID, "the winning link must be untouched")
	assert.Equal(t, 0, reload(t, svc.DB, loser.ID).ReferralCount)

	var rewards int64
	require.NoError(t, svc.DB.Model(&models.ReferralReward{}).
		Where("referrer_id = ?", loser.ID).Count(&rewards).Error)
	assert.Zero(t, rewards, "a lost race must write nothing")
}

func TestUseReferralCodeValidationOrder(t *testing.T) {
	refs, svc := newReferralService(t)
	user := createUser(t, svc.DB, models.RoleExecutor)

	result, err := refs.UseReferralCode(user.ID, "NOPE1234")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MsgInvalidCode, result.Message)

	ownCode, err := refs.CreateReferralCode(user.ID)
	require.NoError(t, err)
	result, err = refs.UseReferralCode(user.ID, ownCode)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MsgOwnCode, result.Message)

	_, err = refs.UseReferralCode(555, ownCode)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRewardReferralSubscription(t *testing.T) {
	refs, svc := newReferralService(t)
	referrer := createUser(t, svc.DB, models.RoleExecutor)
	referred := createUser(t, svc.DB, models.RoleExecutor)

	code, err := refs.CreateReferralCode(referrer.ID)
	require.NoError(t, err)
	result, err := refs.UseReferralCode(referred.ID, code)
	require.NoError(t, err)
	require.True(t, result.Success)

	xpBefore := reload(t, svc.DB, referrer.ID).ExperiencePoints

	// No subscription yet: nothing to reward.
	rewarded, err := refs.RewardReferralSubscription(referred.ID)
	require.NoError(t, err)
	assert.False(t, rewarded)

	// An expired subscription does not count either.
	require.NoError(t, svc.DB.Create(&models.Subscription{
		UserID:    referred.ID,
		Status:    models.SubscriptionStatusExpired,
		StartedAt: time.Now().Add(-60 * 24 * time.Hour),
	}).Error)
	rewarded, err = refs.RewardReferralSubscription(referred.ID)
	require.NoError(t, err)
	assert.False(t, rewarded, "only an active subscription triggers the bonus")

	require.NoError(t, svc.DB.Create(&models.Subscription{
		UserID:    referred.ID,
		Status:    models.SubscriptionStatusActive,
		StartedAt: time.Now(),
	}).Error)

	rewarded, err = refs.RewardReferralSubscription(referred.ID)
	require.NoError(t, err)
	assert.True(t, rewarded)

	gotReferrer := reload(t, svc.DB, referrer.ID)
	assert.Equal(t, xpBefore+SubscriptionBonusXP, gotReferrer.ExperiencePoints)
	assert.Equal(t, SubscriptionBonusAmount, gotReferrer.ReferralEarnings)

	var bonus models.ReferralReward
	require.NoError(t, svc.DB.
		Where("referrer_id = ? AND reward_type = ?", referrer.ID, models.RewardTypeBonus).
		First(&bonus).Error)
	assert.True(t, bonus.IsPaid, "subscription bonus is paid immediately")
	require.NotNil(t, bonus.PaidAt)
	assert.Equal(t, SubscriptionBonusXP, bonus.XPAmount)

	// One bonus per referred user, ever.
	rewarded, err = refs.RewardReferralSubscription(referred.ID)
	require.NoError(t, err)
	assert.False(t, rewarded)
	assert.Equal(t, xpBefore+SubscriptionBonusXP, reload(t, svc.DB, referrer.ID).ExperiencePoints)
}

func TestRewardReferralSubscriptionRequiresExecutorTrack(t *testing.T) {
	refs, svc := newReferralService(t)
	referrer := createUser(t, svc.DB, models.RoleClient)
	referred := createUser(t, svc.DB, models.RoleExecutor)

	code, err := refs.CreateReferralCode(referrer.ID)
	require.NoError(t, err)
	result, err := refs.UseReferralCode(referred.ID, code)
	require.NoError(t, err)
	require.True(t, result.Success)

	require.NoError(t, svc.DB.Create(&models.Subscription{
		UserID:    referred.ID,
		Status:    models.SubscriptionStatusActive,
		StartedAt: time.Now(),
	}).Error)

	rewarded, err := refs.RewardReferralSubscription(referred.ID)
	require.NoError(t, err)
	assert.False(t, rewarded, "client referrer gets no subscription bonus")

	unreferred := createUser(t, svc.DB, models.RoleExecutor)
	rewarded, err = refs.RewardReferralSubscription(unreferred.ID)
	require.NoError(t, err)
	assert.False(t, rewarded)
}

func TestSettlePendingRewards(t *testing.T) {
	refs, svc := newReferralService(t)
	referrer := createUser(t, svc.DB, models.RoleClient)
	redeemer := createUser(t, svc.DB, models.RoleClient)

	code, err := refs.CreateReferralCode(referrer.ID)
	require.NoError(t, err)
	result, err := refs.UseReferralCode(redeemer.ID, code)
	require.NoError(t, err)
	require.True(t, result.Success)

	// Rewards are fresh: nothing is old enough to settle.
	settled, err := refs.SettlePendingRewards()
	require.NoError(t, err)
	assert.Zero(t, settled)

	// Two days later the sweep pays them out.
	refs.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	settled, err = refs.SettlePendingRewards()
	require.NoError(t, err)
	assert.EqualValues(t, 2, settled)

	var pending int64
	require.NoError(t, svc.DB.Model(&models.ReferralReward{}).
		Where("is_paid = ?", false).Count(&pending).Error)
	assert.Zero(t, pending)
}

func TestGetReferralStats(t *testing.T) {
	refs, svc := newReferralService(t)
	referrer := createUser(t, svc.DB, models.RoleExecutor)
	referred := createUser(t, svc.DB, models.RoleClient)

	code, err := refs.CreateReferralCode(referrer.ID)
	require.NoError(t, err)
	result, err := refs.UseReferralCode(referred.ID, code)
	require.NoError(t, err)
	require.True(t, result.Success)

	stats, err := refs.GetReferralStats(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, code, stats.Code)
	assert.Equal(t, 1, stats.TotalReferrals)
	assert.False(t, stats.IsReferred)
	require.Len(t, stats.Referrals, 1)
	assert.Equal(t, referred.ID, stats.Referrals[0].ID)
	assert.Len(t, stats.Rewards, 2)

	redeemerStats, err := refs.GetReferralStats(referred.ID)
	require.NoError(t, err)
	assert.True(t, redeemerStats.IsReferred)
	assert.NotEmpty(t, redeemerStats.Code, "stats lazily generate a code")
}
