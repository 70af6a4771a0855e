package staking

import "github.com/AlexNa-Holdings/memestake/eth"

// Native staking vault: M in, igM out.
var StakingVault = eth.Fragment(`[
	{"type":"function","name":"deposit","stateMutability":"payable","inputs":[{"name":"receiver","type":"address"},{"name":"minSharesOut","type":"uint256"}],"outputs":[{"name":"shares","type":"uint256"}]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"},{"name":"owner","type":"address"},{"name":"maxSharesIn","type":"uint256"}],"outputs":[{"name":"shares","type":"uint256"}]},
	{"type":"function","name":"redeem","stateMutability":"nonpayable","inputs":[{"name":"shares","type":"uint256"},{"name":"receiver","type":"address"},{"name":"owner","type":"address"},{"name":"minAssetsOut","type":"uint256"}],"outputs":[{"name":"assets","type":"uint256"}]},
	{"type":"function","name":"convertToShares","stateMutability":"view","inputs":[{"name":"assets","type":"uint256"}],"outputs":[{"name":"shares","type":"uint256"}]},
	{"type":"function","name":"convertToAssets","stateMutability":"view","inputs":[{"name":"shares","type":"uint256"}],"outputs":[{"name":"assets","type":"uint256"}]},
	{"type":"function","name":"totalAssets","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"stM","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`)

// Yield vault: igM in, vigM out, delayed withdrawals.
var YieldVault = eth.Fragment(`[
	{"type":"function","name":"deposit","stateMutability":"nonpayable","inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"},{"name":"minSharesOut","type":"uint256"}],"outputs":[{"name":"shares","type":"uint256"}]},
	{"type":"function","name":"depositWithPermit","stateMutability":"nonpayable","inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"},{"name":"minSharesOut","type":"uint256"},{"name":"deadline","type":"uint256"},{"name":"v","type":"uint8"},{"name":"r","type":"bytes32"},{"name":"s","type":"bytes32"}],"outputs":[{"name":"shares","type":"uint256"}]},
	{"type":"function","name":"requestWithdrawal","stateMutability":"nonpayable","inputs":[{"name":"shares","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"completeWithdrawal","stateMutability":"nonpayable","inputs":[],"outputs":[{"name":"assets","type":"uint256"}]},
	{"type":"function","name":"withdrawalRequests","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"shares","type":"uint256"},{"name":"unlockBlock","type":"uint256"}]},
	{"type":"function","name":"convertToShares","stateMutability":"view","inputs":[{"name":"assets","type":"uint256"}],"outputs":[{"name":"shares","type":"uint256"}]},
	{"type":"function","name":"convertToAssets","stateMutability":"view","inputs":[{"name":"shares","type":"uint256"}],"outputs":[{"name":"assets","type":"uint256"}]},
	{"type":"function","name":"asset","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"lrt","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`)

// Reward strategy behind the yield vault.
var Strategy = eth.Fragment(`[
	{"type":"function","name":"adminDepositRewards","stateMutability":"nonpayable","inputs":[{"name":"rewardAmount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getExchangeRate","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`)
