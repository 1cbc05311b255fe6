package model

import "strings"

// Tier is a lead quality classification, ordered from highest to lowest
// commercial potential.
type Tier string

const (
	TierMQLPlus      Tier = "MQL+"
	TierMQL          Tier = "MQL"
	TierLeadPlus     Tier = "LEAD+"
	TierLead         Tier = "LEAD"
	TierDisqualified Tier = "DESQUALIFICADO"
)

// AllTiers returns the defined tiers in descending order of quality.
func AllTiers() []Tier {
	return []Tier{TierMQLPlus, TierMQL, TierLeadPlus, TierLead, TierDisqualified}
}

// Contact is a person attached to a lead.
type Contact struct {
	Name  string `json:"nome"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Named is a generic {id, nome} reference used across SULTS payloads.
type Named struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}

// Funnel identifies the sales funnel a stage belongs to.
type Funnel struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}

// Stage is the funnel stage a lead currently sits in.
type Stage struct {
	ID     int64  `json:"id"`
	Name   string `json:"nome"`
	Funnel Funnel `json:"funil"`
}

// RawLead is a lead exactly as the SULTS list endpoint delivers it.
type RawLead struct {
	ID             int64     `json:"id"`
	Title          string    `json:"titulo"`
	Contacts       []Contact `json:"contatoPessoa"`
	Origin         *Named    `json:"origem"`
	City           string    `json:"cidade"`
	State          string    `json:"uf"`
	Tags           []Named   `json:"etiqueta"`
	Situation      *Named    `json:"situacao"`
	LossReason     *Named    `json:"situacaoPerdaMotivo"`
	LossReasonNote string    `json:"situacaoPerdaMotivoObservacao"`
	Stage          Stage     `json:"etapa"`
	CreatedAt      string    `json:"dtCadastro"`
}

// ContactName returns the first contact's name, or "".
func (l RawLead) ContactName() string {
	if len(l.Contacts) == 0 {
		return ""
	}
	return l.Contacts[0].Name
}

// ContactEmail returns the first contact's email, or "".
func (l RawLead) ContactEmail() string {
	if len(l.Contacts) == 0 {
		return ""
	}
	return l.Contacts[0].Email
}

// ContactPhone returns the first contact's phone, or "".
func (l RawLead) ContactPhone() string {
	if len(l.Contacts) == 0 {
		return ""
	}
	return l.Contacts[0].Phone
}

// OriginName returns the origin name, or "" when the lead has no origin.
func (l RawLead) OriginName() string {
	if l.Origin == nil {
		return ""
	}
	return l.Origin.Name
}

// SituationName returns the situation name, or "".
func (l RawLead) SituationName() string {
	if l.Situation == nil {
		return ""
	}
	return l.Situation.Name
}

// TagNames returns tag names joined with ", ".
func (l RawLead) TagNames() string {
	names := make([]string, 0, len(l.Tags))
	for _, t := range l.Tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

// MergedLossReason combines the loss reason name with its free-text note,
// "nome - observacao" when both are present.
func (l RawLead) MergedLossReason() string {
	name := ""
	if l.LossReason != nil {
		name = l.LossReason.Name
	}
	if l.LossReasonNote == "" {
		return name
	}
	if name == "" {
		return l.LossReasonNote
	}
	return name + " - " + l.LossReasonNote
}

// HTMLFragment is a SULTS description body carrying HTML markup.
type HTMLFragment struct {
	DescriptionHTML string `json:"descricaoHtml"`
}

// TimelineItem is one activity record on a lead's timeline. Any of the
// description carriers may be absent; scanning order is description,
// activity, annotation, checkpoint.
type TimelineItem struct {
	DescriptionHTML string        `json:"descricaoHtml"`
	Activity        *HTMLFragment `json:"atividade"`
	Annotation      *HTMLFragment `json:"anotacao"`
	Checkpoint      *HTMLFragment `json:"checkpoint"`
}

// HTMLFields returns the item's HTML-bearing fields in scan priority order,
// skipping absent carriers but keeping empty strings from present ones.
func (t TimelineItem) HTMLFields() []string {
	fields := []string{t.DescriptionHTML}
	for _, frag := range []*HTMLFragment{t.Activity, t.Annotation, t.Checkpoint} {
		if frag != nil {
			fields = append(fields, frag.DescriptionHTML)
		}
	}
	return fields
}

// EnrichedLead is the pipeline's output record: the flattened lead plus the
// mined investment figure, the three normalized indices, the composite score
// and the resulting tier. Immutable once classified.
type EnrichedLead struct {
	ID                  int64   `json:"id"`
	CreatedAt           string  `json:"data_criacao"` // DD/MM/YYYY
	Title               string  `json:"titulo"`
	Name                string  `json:"nome"`
	Email               string  `json:"email"`
	Phone               string  `json:"celular"`
	Origin              string  `json:"origem"`
	City                string  `json:"cidade"`
	State               string  `json:"estado"`
	Tags                string  `json:"etiquetas"`
	Situation           string  `json:"situacao"`
	LossReason          string  `json:"motivo_perda"`
	AvailableInvestment float64 `json:"valor_disponivel_para_investimento"`
	LocationIndex       float64 `json:"localizacao_index"`
	InvestmentIndex     float64 `json:"investimento_index"`
	TimeIndex           float64 `json:"tempo_index"`
	Score               float64 `json:"score_index"`
	Classification      Tier    `json:"classificacao_index"`
}
