package classify

import "github.com/ppiankov/argintel/internal/model"

// SeedExamples is the fixed corpus the default model is trained on
var SeedExamples = []Example{
	{"This policy is harmful to small businesses", model.SentenceClaim},
	{"The proposed tax is unfair to low income families", model.SentenceClaim},
	{"Parliament ought to reject this amendment", model.SentenceClaim},
	{"The levy is a bad idea for farmers", model.SentenceClaim},
	{"I strongly oppose the new licensing requirement", model.SentenceClaim},
	{"I fully support the expansion of rural clinics", model.SentenceClaim},
	{"This provision is dangerous for press freedom", model.SentenceClaim},
	{"The county government deserves more funding", model.SentenceClaim},
	{"The reform is essential for accountability", model.SentenceClaim},

	{"Government figures indicate a rise in unemployment last year", model.SentenceEvidence},
	{"A survey of traders reported falling sales after the levy", model.SentenceEvidence},
	{"The census recorded two million households in the region", model.SentenceEvidence},
	{"Researchers at the university measured a drop in school enrolment", model.SentenceEvidence},
	{"The audit report documented missing funds in three ministries", model.SentenceEvidence},
	{"In 2019 the court ruled that similar charges were illegal", model.SentenceEvidence},
	{"The constitution guarantees every citizen the right to health care", model.SentenceEvidence},
	{"Economists estimate the levy costs households thousands of shillings", model.SentenceEvidence},
	{"Official records list forty thousand registered boda boda operators", model.SentenceEvidence},

	{"Because prices rise when taxes increase, families buy less food", model.SentenceReasoning},
	{"Therefore the burden falls on those least able to pay", model.SentenceReasoning},
	{"This means traders will move to informal markets", model.SentenceReasoning},
	{"As a result fewer patients can afford treatment", model.SentenceReasoning},
	{"Since counties depend on transfers, any cut reduces local services", model.SentenceReasoning},
	{"Consequently the revenue target cannot be met", model.SentenceReasoning},
	{"Thus the cost of compliance outweighs the expected revenue", model.SentenceReasoning},
	{"Hence investors may look to neighbouring countries instead", model.SentenceReasoning},
	{"This leads to higher transport fares for commuters", model.SentenceReasoning},
}
