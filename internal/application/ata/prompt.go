package ata

import (
	"fmt"
	"strings"

	"github.com/compia/backend/internal/domain/ata"
	"github.com/compia/backend/internal/domain/inspection"
)

const systemPrompt = `Você é um assistente de segurança do trabalho que redige a ata de uma inspeção.
Ouça o áudio da reunião e responda somente com um objeto JSON no formato:
{
  "transcript": "transcrição fiel do áudio",
  "summary": "resumo objetivo em até 10 linhas",
  "participants": ["nome (cargo)"],
  "decisions": ["decisão tomada"],
  "findings": [{"item": "texto do item do checklist", "compliant": true, "observation": "o que foi dito"}],
  "actions": [{"what": "o que fazer", "why": "por quê", "who": "responsável", "when": "prazo"}]
}
Em "findings" use o texto exato do item do checklist quando o áudio se referir a ele.
Use "compliant": null quando o áudio não deixar claro se o item está conforme.
Não invente informações que não estejam no áudio.`

// buildPrompt describes the inspection and lists its checklist so the model
// can name the items it heard about
func buildPrompt(insp *inspection.Inspection, items []inspection.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Inspeção: %s\n", insp.Title)
	if insp.CompanyName != "" {
		fmt.Fprintf(&b, "Empresa: %s\n", insp.CompanyName)
	}
	if insp.Location != "" {
		fmt.Fprintf(&b, "Local: %s\n", insp.Location)
	}
	if len(items) == 0 {
		b.WriteString("\nA inspeção não possui itens de checklist.\n")
		return b.String()
	}

	b.WriteString("\nItens do checklist:\n")
	category := ""
	for i := range items {
		it := &items[i]
		if it.Category != "" && it.Category != category {
			category = it.Category
			fmt.Fprintf(&b, "\n[%s]\n", category)
		}
		fmt.Fprintf(&b, "- %s\n", it.Description)
	}
	return b.String()
}

// candidates turns the checklist into matcher input
func candidates(items []inspection.Item) []ata.Candidate {
	out := make([]ata.Candidate, len(items))
	for i := range items {
		out[i] = ata.Candidate{ID: items[i].ID, Text: items[i].Description}
	}
	return out
}
