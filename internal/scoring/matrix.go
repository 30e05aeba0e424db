package scoring

import "github.com/sales440/ivy-ai-platform/internal/domain"

// specializationMatrix encodes domain priors for how well each agent
// specialization fits each campaign motion, on a 0-100 scale. Unknown
// combinations fall back to neutralSpecialization.
const neutralSpecialization = 50.0

var specializationMatrix = map[domain.AgentType]map[domain.CampaignType]float64{
	domain.AgentProspector: {
		domain.CampaignColdOutreach: 95,
		domain.CampaignNurture:      55,
		domain.CampaignConversion:   60,
		domain.CampaignReactivation: 50,
		domain.CampaignUpsell:       40,
	},
	domain.AgentNurturer: {
		domain.CampaignColdOutreach: 45,
		domain.CampaignNurture:      95,
		domain.CampaignConversion:   65,
		domain.CampaignReactivation: 70,
		domain.CampaignUpsell:       55,
	},
	domain.AgentCloser: {
		domain.CampaignColdOutreach: 50,
		domain.CampaignNurture:      60,
		domain.CampaignConversion:   95,
		domain.CampaignReactivation: 55,
		domain.CampaignUpsell:       75,
	},
	domain.AgentReactivator: {
		domain.CampaignColdOutreach: 40,
		domain.CampaignNurture:      65,
		domain.CampaignConversion:   55,
		domain.CampaignReactivation: 95,
		domain.CampaignUpsell:       45,
	},
	domain.AgentExpander: {
		domain.CampaignColdOutreach: 35,
		domain.CampaignNurture:      55,
		domain.CampaignConversion:   70,
		domain.CampaignReactivation: 50,
		domain.CampaignUpsell:       95,
	},
}

// specializationScore looks up the prior for an (agent type, campaign type)
// pair. Combinations missing from the matrix score neutral.
func specializationScore(agentType domain.AgentType, campaignType domain.CampaignType) float64 {
	row, ok := specializationMatrix[agentType]
	if !ok {
		return neutralSpecialization
	}
	score, ok := row[campaignType]
	if !ok {
		return neutralSpecialization
	}
	return score
}
