package game

import "time"

// Distances are in world units (16 per tile), durations in seconds.
const (
	DefaultMaxStep = 33 * time.Millisecond

	playerSpeed    = 52.0
	playerRunSpeed = 82.0
	playerBaseHP   = 10

	attackCooldown = 0.32
	attackReach    = 10.0
	attackRadius   = 13.0
	meleeDamage    = 2

	contactRadius       = 10.0
	contactDamage       = 1
	invulnerableWindow  = 0.8
	hurtFlash           = 0.15
	levelUpMaxHPBonus   = 2
	mushroomQuestAmount = 3
	mushroomMaxHPBonus  = 2
	shardBeaconAmount   = 3
	chestCoins          = 12
	gliderCoins         = 25
	forgeCost           = 10

	dashDuration       = 0.18
	dashSpeed          = 160.0
	dashCooldown       = 0.9
	gliderDashCooldown = 0.45

	slimeHP     = 6
	slimeSpeed  = 22.0
	slimeReroll = 1.2
	slimeXP     = 3

	harpyHP         = 7
	harpyMinSpeed   = 18.0
	harpyMaxSpeed   = 46.0
	harpySpeedScale = 30.0 * 64.0
	harpyWeave      = 14.0
	harpyWeaveRate  = 2.2
	harpyFireRange  = 120.0
	harpyFireMin    = 1.6
	harpyFireMax    = 2.8
	harpyXP         = 5

	projectileSpeed     = 70.0
	projectileMaxAge    = 2.5
	projectileHitRadius = 6.0
	projectileDamage    = 1

	npcTalkRadius = 16 * 1.2

	toastLimit    = 4
	toastLifetime = 2.6
)

// XPToLevel is the XP needed to leave the given level.
func XPToLevel(level int) int {
	return 6 + (level-1)*4
}
