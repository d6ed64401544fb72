package domain

// Systems Biology Ontology terms consulted when classifying reactions.
const (
	SBOCatalyst                 = 13
	SBOEnzymaticCatalyst        = 460
	SBOInhibitor                = 20
	SBOCompetitiveInhibitor     = 206
	SBONonCompetitiveInhibitor  = 207
	SBOTranscriptionalInhibitor = 536
	SBOTranslationalInhibitor   = 537
	SBOStimulator               = 459
	SBOEssentialActivator       = 461
	SBONonEssentialActivator    = 462
	SBOPotentiator              = 21
	SBOTranscriptionalActivator = 534
	SBOTranslationalActivator   = 535
	SBOTrigger                  = 411
	SBOSimpleChemical           = 247
	SBOGene                     = 243
	SBOGeneCodingRegion         = 335
	SBOTranscription            = 183
	SBOTranslation              = 184
	SBOEmptySet                 = 291
	SBOKineticConstant          = 9
	SBOCatalyticRateConstant    = 25
	SBOMichaelisConstant        = 27
	SBOInhibitoryConstant       = 261
	SBOHillCoefficient          = 190
	SBOForwardRateConstant      = 153
	SBOReverseRateConstant      = 156
	SBOMaximalVelocity          = 186
	SBOHalfSaturationConstant   = 194
	SBOExponent                 = 189
	SBOActivationConstant       = 363
)

// ModifierRole classifies a modifier reference.
type ModifierRole string

// Modifier roles derived from SBO terms. References without a recognised
// term are unknown.
const (
	RoleCatalyst  ModifierRole = "catalyst"
	RoleInhibitor ModifierRole = "inhibitor"
	RoleActivator ModifierRole = "activator"
	RoleUnknown   ModifierRole = "unknown"
)

// Role derives the modifier role from its SBO term.
func (m ModifierReference) Role() ModifierRole {
	switch m.SBOTerm {
	case SBOCatalyst, SBOEnzymaticCatalyst:
		return RoleCatalyst
	case SBOInhibitor, SBOCompetitiveInhibitor, SBONonCompetitiveInhibitor,
		SBOTranscriptionalInhibitor, SBOTranslationalInhibitor:
		return RoleInhibitor
	case SBOStimulator, SBOEssentialActivator, SBONonEssentialActivator,
		SBOPotentiator, SBOTranscriptionalActivator, SBOTranslationalActivator, SBOTrigger:
		return RoleActivator
	}
	return RoleUnknown
}

// Transcriptional reports whether the modifier acts on gene expression.
func (m ModifierReference) Transcriptional() bool {
	switch m.SBOTerm {
	case SBOTranscriptionalActivator, SBOTranslationalActivator,
		SBOTranscriptionalInhibitor, SBOTranslationalInhibitor:
		return true
	}
	return false
}

// IsGene reports whether the species represents a gene or coding region.
func (s Species) IsGene() bool {
	return s.SBOTerm == SBOGene || s.SBOTerm == SBOGeneCodingRegion
}

// IsGeneExpression reports whether the reaction is transcription or translation.
func (r Reaction) IsGeneExpression() bool {
	return r.SBOTerm == SBOTranscription || r.SBOTerm == SBOTranslation
}
