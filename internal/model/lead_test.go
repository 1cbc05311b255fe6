package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawLeadUnmarshal(t *testing.T) {
	payload := `{
		"id": 4512,
		"titulo": "Negócio Goiânia/GO",
		"contatoPessoa": [{"nome": "Ana Souza", "email": "ana@example.com", "phone": "62999990000"}],
		"origem": {"id": 3, "nome": "Facebook"},
		"cidade": "Goiânia",
		"uf": "GO",
		"etiqueta": [{"id": 1, "nome": "quente"}, {"id": 2, "nome": "indicação"}],
		"situacao": {"id": 2, "nome": "Em andamento"},
		"situacaoPerdaMotivo": {"id": 9, "nome": "Sem capital"},
		"situacaoPerdaMotivoObservacao": "retomar em 6 meses",
		"etapa": {"id": 11, "nome": "Qualificação", "funil": {"id": 1, "nome": "Franqueado"}},
		"dtCadastro": "2025-11-03T14:22:00Z"
	}`

	var lead RawLead
	require.NoError(t, json.Unmarshal([]byte(payload), &lead))

	assert.Equal(t, int64(4512), lead.ID)
	assert.Equal(t, "Ana Souza", lead.ContactName())
	assert.Equal(t, "ana@example.com", lead.ContactEmail())
	assert.Equal(t, "62999990000", lead.ContactPhone())
	assert.Equal(t, "Facebook", lead.OriginName())
	assert.Equal(t, "Em andamento", lead.SituationName())
	assert.Equal(t, "quente, indicação", lead.TagNames())
	assert.Equal(t, "Sem capital - retomar em 6 meses", lead.MergedLossReason())
	assert.Equal(t, int64(1), lead.Stage.Funnel.ID)
}

func TestRawLeadAccessorsAbsentFields(t *testing.T) {
	var lead RawLead
	assert.Empty(t, lead.ContactName())
	assert.Empty(t, lead.ContactEmail())
	assert.Empty(t, lead.ContactPhone())
	assert.Empty(t, lead.OriginName())
	assert.Empty(t, lead.SituationName())
	assert.Empty(t, lead.TagNames())
	assert.Empty(t, lead.MergedLossReason())
}

func TestMergedLossReasonVariants(t *testing.T) {
	withName := RawLead{LossReason: &Named{Name: "Sem capital"}}
	assert.Equal(t, "Sem capital", withName.MergedLossReason())

	noteOnly := RawLead{LossReasonNote: "desistiu"}
	assert.Equal(t, "desistiu", noteOnly.MergedLossReason())
}

func TestTimelineItemHTMLFields(t *testing.T) {
	item := TimelineItem{
		DescriptionHTML: "<p>direto</p>",
		Annotation:      &HTMLFragment{DescriptionHTML: "<p>anotacao</p>"},
		Checkpoint:      &HTMLFragment{},
	}
	// Priority order: direct, activity (absent), annotation, checkpoint.
	assert.Equal(t, []string{"<p>direto</p>", "<p>anotacao</p>", ""}, item.HTMLFields())
}

func TestTimelineItemUnmarshalNested(t *testing.T) {
	payload := `{
		"atividade": {"descricaoHtml": "<div>Investimento: 60 mil</div>"},
		"checkpoint": {"descricaoHtml": "<span>ok</span>"}
	}`
	var item TimelineItem
	require.NoError(t, json.Unmarshal([]byte(payload), &item))

	require.NotNil(t, item.Activity)
	assert.Equal(t, "<div>Investimento: 60 mil</div>", item.Activity.DescriptionHTML)
	assert.Nil(t, item.Annotation)
	assert.Equal(t, []string{"", "<div>Investimento: 60 mil</div>", "<span>ok</span>"}, item.HTMLFields())
}
