package usecase

import "license-entitlement-service/internal/domain"

// Phase はライセンス階層によってゲートされるパイプラインフェーズを表す。
type Phase string

const (
	// PhaseContainerScan はコンテナイメージスキャンフェーズ。
	PhaseContainerScan Phase = "container_scan"
	// PhaseAIFix はAIによる修正提案フェーズ。
	PhaseAIFix Phase = "ai_fix"
	// PhaseThreatModel はSTRIDE脅威モデリングフェーズ。
	PhaseThreatModel Phase = "threat_model"
)

// PhaseEnabled は指定された階層でフェーズが有効かどうかを返す。
// ゲート判定は階層のみに基づく。理由コードは判定に使わない。
func PhaseEnabled(tier domain.Tier, phase Phase) bool {
	switch phase {
	case PhaseContainerScan, PhaseAIFix:
		return tier == domain.TierPro || tier == domain.TierEnterprise
	case PhaseThreatModel:
		return tier == domain.TierEnterprise
	}
	return false
}

// EnabledPhases は指定された階層で有効なフェーズの一覧を返す。
func EnabledPhases(tier domain.Tier) []Phase {
	phases := []Phase{PhaseContainerScan, PhaseAIFix, PhaseThreatModel}
	enabled := make([]Phase, 0, len(phases))
	for _, p := range phases {
		if PhaseEnabled(tier, p) {
			enabled = append(enabled, p)
		}
	}
	return enabled
}
