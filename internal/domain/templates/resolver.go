package templates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Fallback consent text used when no template keyword matches the procedure.
// Resolution is total: callers always get a printable document body.
const (
	FallbackTitle = "Termo de Consentimento Livre e Esclarecido"

	fallbackContent = `Eu, paciente identificado(a) pelo registro {PATIENT_ID}, declaro para os devidos fins que fui devidamente informado(a) e esclarecido(a) sobre o procedimento {PROCEDIMENTO}, seus objetivos, benefícios esperados, riscos e possíveis complicações, bem como sobre as alternativas disponíveis.

Declaro que tive a oportunidade de fazer perguntas e que todas foram respondidas de forma satisfatória. Autorizo, de livre e espontânea vontade, a realização do procedimento acima descrito.

Data: {DATA}`

	errorTitle   = "Erro ao carregar o termo de consentimento"
	errorContent = `Não foi possível carregar os modelos de termo de consentimento da clínica no momento da geração deste documento.

Procedimento: {PROCEDIMENTO}
Paciente: {PATIENT_ID}
Data: {DATA}

Este documento foi gerado para registrar a tentativa. Gere o termo novamente antes de colher a assinatura do paciente.`
)

// Resolver selects the consent template for a procedure and substitutes
// its placeholders.
type Resolver struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewResolver(repo Repository, logger zerolog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger, now: time.Now}
}

// Resolve picks the best-matching non-deleted template for the clinic and
// procedure and returns its content with placeholders substituted.
//
// Matching is a case-insensitive substring test of each template keyword
// against the procedure name. The longest matching keyword wins; ties are
// broken by fetch order, so resolution is deterministic for a fixed template
// set. No match selects the canonical fallback text.
//
// A failed template fetch does not propagate: the returned document carries
// an error title and body so the rendering stage still produces an artifact
// in front of the patient instead of crashing the flow.
func (r *Resolver) Resolve(ctx context.Context, clinicID uuid.UUID, procedureName, patientID string) ResolvedConsent {
	list, err := r.repo.ListByClinic(ctx, clinicID)
	if err != nil {
		r.logger.Error().Err(err).
			Str("clinic_id", clinicID.String()).
			Str("procedure", procedureName).
			Msg("template fetch failed, emitting error document")
		return ResolvedConsent{
			Title:   errorTitle,
			Content: r.substitute(errorContent, procedureName, patientID),
		}
	}

	procLower := strings.ToLower(procedureName)
	var best *ConsentTemplate
	bestLen := 0
	for _, t := range list {
		for _, kw := range t.ProcedureKeywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			if strings.Contains(procLower, strings.ToLower(kw)) && len(kw) > bestLen {
				best = t
				bestLen = len(kw)
			}
		}
	}

	if best == nil {
		return ResolvedConsent{
			Title:   FallbackTitle,
			Content: r.substitute(fallbackContent, procedureName, patientID),
		}
	}

	id := best.ID
	return ResolvedConsent{
		TemplateID: &id,
		Title:      best.Title,
		Content:    r.substitute(best.Content, procedureName, patientID),
	}
}

// substitute replaces every known placeholder in a single pass over the
// original text. Replacement values are never re-scanned, so a value that
// happens to contain a placeholder token is not expanded again. Unknown
// placeholders are left verbatim.
func (r *Resolver) substitute(content, procedureName, patientID string) string {
	rep := strings.NewReplacer(
		"{PROCEDIMENTO}", strings.ToUpper(procedureName),
		"{DATA}", r.now().Format("02/01/2006"),
		"{PATIENT_ID}", patientID,
	)
	return rep.Replace(content)
}
