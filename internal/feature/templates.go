package feature

import "github.com/KaramelBytes/callpulse/internal/prompt"

var sentimentTemplate = prompt.Template{
	Role:        "You are a customer-service analyst. You assess the tone of speech objectively.",
	Temperature: 0.3,
	// ~250 words
	MaxOutputTokens: 600,
	Instructions: `You are an expert in customer communication analysis. Below are transcripts of conversations between managers and customers.

Each record contains:
- ID_MANAGER: manager identifier
- CALL_CHIFR: transcript of part of the call (the manager's lines)

Your task:
1. For each manager determine the sentiment of their speech: positive, neutral or negative.
2. Justify briefly (e.g. "uses polite wording", "aggressive tone", "monotonous").
3. If a transcript is too short or unclear, mark it as "insufficient data".

Answer in a structured way, without code, in at most 250 words.`,
}

var managerTypeTemplate = prompt.Template{
	Role:            "You precisely match behaviour to predefined types.",
	Temperature:     0.2,
	MaxOutputTokens: 800,
	Instructions: `You are an expert in behavioural analysis. The manager types are listed in the MANAGER TYPES section.

Your task:
1. Based on the CALL_CHIFR transcript, determine which type each manager belongs to.
2. Choose exactly one best-matching type from the list.
3. Explain the choice briefly (1-2 sentences).
4. If the transcript is insufficient, say "insufficient data".

Answer in a structured way, without code.`,
}

var topSellersTemplate = prompt.Template{
	Role:            "You identify sales best practices from the openings of real calls.",
	Temperature:     0.4,
	MaxOutputTokens: 500,
	Instructions: `You are a sales expert. Below are the openings of calls (the first ~300 characters) from the managers with the highest sales volume.

Analyse their strategies in the first seconds of the conversation:
1. How do they greet the customer? (formally, warmly, by name?)
2. How do they introduce themselves and the company?
3. How do they introduce the product or service? (benefit, customer problem, discount?)
4. Do they use questions or stories?

Give a short, practical conclusion for training the team.
Answer without code, in at most 200 words.`,
}

var agentPerformanceTemplate = prompt.Template{
	Role:            "You are a call-center performance analyst. You base every number on the data provided.",
	Temperature:     0.3,
	MaxOutputTokens: 1200,
	Instructions: `You are given order records handled by call-center agents. Each record contains the agent (ID_MANAGER, NAME, TEAM when known), the order (ID_ZAKAZ), its STATUS, the SALES amount and the CUSTOMERNAME.

Your task:
1. For each agent compute: total orders, successful orders (STATUS Completed, Shipped or Resolved), conversion rate, total and average sales, number of unique customers.
2. Rank the agents and name the top 3 and the bottom 3 with a one-line explanation each.
3. Point out anomalies (e.g. high volume with low conversion).
4. Give 3 concrete recommendations for the team lead.

Answer in a structured way, without code.`,
}

var emotionalDynamicsTemplate = prompt.Template{
	Role:            "You analyse the emotional course of customer conversations.",
	Temperature:     0.3,
	MaxOutputTokens: 900,
	Instructions: `Below are call transcripts with the handling agent and the resulting order STATUS.

Your task:
1. For each call describe how the customer's emotional state changes from the beginning to the end (e.g. irritated -> calm).
2. Identify the agent's words or actions that caused the change.
3. Relate the emotional outcome to the order STATUS where possible.
4. Summarise recurring patterns and give 3 recommendations for de-escalation.

If a transcript does not contain customer lines, mark it as "insufficient data". Answer without code.`,
}

var salesPhrasesTemplate = prompt.Template{
	Role:            "You identify phrases that drive successful sales.",
	Temperature:     0.3,
	MaxOutputTokens: 900,
	Instructions: `Below are call fragments (the first ~200 characters) with the order STATUS and SALES amount.

Your task:
1. Compare calls with successful outcomes (STATUS Completed, Shipped or Resolved, or high SALES) against the rest.
2. List up to 10 phrases or phrase patterns that occur noticeably more often in successful calls, with an example each.
3. List phrases that tend to precede failed outcomes.
4. Give practical advice on which phrases to add to the call script.

Answer in a structured way, without code.`,
}
