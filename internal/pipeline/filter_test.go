package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/behonest/leadscore-cli/internal/model"
)

func contactLead(id int64, name, email, phone string) model.RawLead {
	return model.RawLead{
		ID:       id,
		Contacts: []model.Contact{{Name: name, Email: email, Phone: phone}},
	}
}

func TestFilterBlacklist(t *testing.T) {
	f := NewFilter([]int64{7286, 4918})

	blacklisted := contactLead(7286, "Maria", "maria@example.com", "31988887777")
	blacklisted.Title = "Negócio legítimo"
	assert.False(t, f.Keep(blacklisted), "blacklisted id excluded regardless of other fields")

	assert.True(t, f.Keep(contactLead(100, "Maria", "maria@example.com", "31988887777")))
}

func TestFilterTesteSubstring(t *testing.T) {
	f := NewFilter(nil)

	byTitle := contactLead(1, "João", "joao@example.com", "31988887777")
	byTitle.Title = "Teste 123"
	assert.False(t, f.Keep(byTitle))

	byName := contactLead(2, "Cliente TESTE", "x@example.com", "31988887777")
	assert.False(t, f.Keep(byName))

	byEmail := contactLead(3, "João", "teste@example.com", "31988887777")
	assert.False(t, f.Keep(byEmail))

	clean := contactLead(4, "João", "joao@example.com", "31988887777")
	clean.Title = "Expansão BH"
	assert.True(t, f.Keep(clean))
}

func TestFilterOrigin(t *testing.T) {
	f := NewFilter(nil)

	lead := contactLead(1, "Ana", "ana@example.com", "31988887777")
	lead.Origin = &model.Named{Name: "Facebook Duplicado"}
	assert.False(t, f.Keep(lead))

	lead.Origin = &model.Named{Name: "teste"}
	assert.False(t, f.Keep(lead), "origin exactly TESTE is excluded")

	lead.Origin = &model.Named{Name: "Testes internos"}
	assert.True(t, f.Keep(lead), "origin merely containing teste is kept")

	lead.Origin = &model.Named{Name: "Facebook"}
	assert.True(t, f.Keep(lead))

	lead.Origin = nil
	assert.True(t, f.Keep(lead))
}

func TestFilterRepeatedDigitPhone(t *testing.T) {
	f := NewFilter(nil)

	assert.False(t, f.Keep(contactLead(1, "Ana", "ana@example.com", "999999999")))
	assert.False(t, f.Keep(contactLead(2, "Ana", "ana@example.com", "(99) 9 9999-9999")))
	assert.True(t, f.Keep(contactLead(3, "Ana", "ana@example.com", "31988887777")))
	assert.True(t, f.Keep(contactLead(4, "Ana", "ana@example.com", "")), "missing phone is kept")
}

func TestFilterApplyPreservesOrder(t *testing.T) {
	f := NewFilter([]int64{2})
	leads := []model.RawLead{
		contactLead(1, "Ana", "ana@example.com", "31911112222"),
		contactLead(2, "Bia", "bia@example.com", "31933334444"),
		contactLead(3, "Cris", "cris@example.com", "31955556666"),
	}
	kept := f.Apply(leads)
	assert.Len(t, kept, 2)
	assert.Equal(t, int64(1), kept[0].ID)
	assert.Equal(t, int64(3), kept[1].ID)
}

func TestIsRepeatedDigits(t *testing.T) {
	assert.True(t, isRepeatedDigits("11111"))
	assert.True(t, isRepeatedDigits("(11) 1-11"))
	assert.False(t, isRepeatedDigits("12345"))
	assert.False(t, isRepeatedDigits("sem numero"))
}
