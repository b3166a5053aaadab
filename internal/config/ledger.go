package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	sdkmath "cosmossdk.io/math"
)

// Default protocol constants: stake token with 9 decimals,
// reward token with 6 decimals, 0.1 reward token granted per 0.1 staked.
const (
	defaultMinStake              = 100_000_000
	defaultMaxStake              = 1_000_000_000
	defaultStakeStep             = 100_000_000
	defaultRewardRateNumerator   = 100_000
	defaultRewardRateDenominator = 100_000_000
	defaultVestingCliff          = 7 * time.Minute
	defaultVestingPeriod         = 30 * time.Minute
	defaultTransferTimeout       = 15 * time.Second
	defaultStakeToken            = "WSOL"
	defaultRewardToken           = "USDT"
)

type LedgerConfig struct {
	// StakeToken and RewardToken are the symbols handed to the transfer service
	StakeToken            string        `mapstructure:"stake-token"`
	RewardToken           string        `mapstructure:"reward-token"`
	MinStake              uint64        `mapstructure:"min-stake"`
	MaxStake              uint64        `mapstructure:"max-stake"`
	StakeStep             uint64        `mapstructure:"stake-step"`
	RewardRateNumerator   uint64        `mapstructure:"reward-rate-numerator"`
	RewardRateDenominator uint64        `mapstructure:"reward-rate-denominator"`
	VestingCliff          time.Duration `mapstructure:"vesting-cliff"`
	VestingPeriod         time.Duration `mapstructure:"vesting-period"`
	TransferTimeout       time.Duration `mapstructure:"transfer-timeout"`
}

func DefaultLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		StakeToken:            defaultStakeToken,
		RewardToken:           defaultRewardToken,
		MinStake:              defaultMinStake,
		MaxStake:              defaultMaxStake,
		StakeStep:             defaultStakeStep,
		RewardRateNumerator:   defaultRewardRateNumerator,
		RewardRateDenominator: defaultRewardRateDenominator,
		VestingCliff:          defaultVestingCliff,
		VestingPeriod:         defaultVestingPeriod,
		TransferTimeout:       defaultTransferTimeout,
	}
}

func (cfg *LedgerConfig) Validate() error {
	cfg.applyDefaults()

	if cfg.StakeToken == cfg.RewardToken {
		return errors.New("stake-token and reward-token must differ")
	}

	if cfg.StakeStep == 0 {
		return errors.New("stake-step must be positive")
	}

	if cfg.MinStake == 0 {
		return errors.New("min-stake must be positive")
	}

	if cfg.MinStake > cfg.MaxStake {
		return fmt.Errorf("min-stake %d exceeds max-stake %d", cfg.MinStake, cfg.MaxStake)
	}

	if cfg.MinStake%cfg.StakeStep != 0 || cfg.MaxStake%cfg.StakeStep != 0 {
		return errors.New("min-stake and max-stake must be multiples of stake-step")
	}

	if cfg.RewardRateNumerator == 0 || cfg.RewardRateDenominator == 0 {
		return errors.New("reward-rate-numerator and reward-rate-denominator must be positive")
	}

	// every valid amount is a multiple of the step, so an exact step keeps every grant exact
	stepReward := sdkmath.NewIntFromUint64(cfg.StakeStep).Mul(sdkmath.NewIntFromUint64(cfg.RewardRateNumerator))
	if !stepReward.Mod(sdkmath.NewIntFromUint64(cfg.RewardRateDenominator)).IsZero() {
		return errors.New("stake-step times reward rate must be a whole number of reward units")
	}

	// custody balances are signed, so amounts must fit in int64
	if cfg.MaxStake > math.MaxInt64 {
		return errors.New("max-stake does not fit in 64 bits signed")
	}
	maxReward := sdkmath.NewIntFromUint64(cfg.MaxStake).
		Mul(sdkmath.NewIntFromUint64(cfg.RewardRateNumerator)).
		Quo(sdkmath.NewIntFromUint64(cfg.RewardRateDenominator))
	if !maxReward.IsInt64() {
		return errors.New("reward for max-stake does not fit in 64 bits signed")
	}

	if cfg.VestingPeriod <= 0 {
		return errors.New("vesting-period must be positive")
	}

	if cfg.VestingCliff < 0 || cfg.VestingCliff > cfg.VestingPeriod {
		return errors.New("vesting-cliff must be between zero and vesting-period")
	}

	if cfg.TransferTimeout <= 0 {
		return errors.New("transfer-timeout must be positive")
	}

	return nil
}

func (cfg *LedgerConfig) applyDefaults() {
	defaults := DefaultLedgerConfig()

	if cfg.StakeToken == "" {
		cfg.StakeToken = defaults.StakeToken
	}
	if cfg.RewardToken == "" {
		cfg.RewardToken = defaults.RewardToken
	}
	if cfg.MinStake == 0 && cfg.MaxStake == 0 && cfg.StakeStep == 0 {
		cfg.MinStake = defaults.MinStake
		cfg.MaxStake = defaults.MaxStake
		cfg.StakeStep = defaults.StakeStep
	}
	if cfg.RewardRateNumerator == 0 && cfg.RewardRateDenominator == 0 {
		cfg.RewardRateNumerator = defaults.RewardRateNumerator
		cfg.RewardRateDenominator = defaults.RewardRateDenominator
	}
	if cfg.VestingCliff == 0 && cfg.VestingPeriod == 0 {
		cfg.VestingCliff = defaults.VestingCliff
		cfg.VestingPeriod = defaults.VestingPeriod
	}
	if cfg.TransferTimeout == 0 {
		cfg.TransferTimeout = defaults.TransferTimeout
	}
}
