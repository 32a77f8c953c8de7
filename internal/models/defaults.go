package models

import (
	"sync"

	"github.com/magabrotheeeer/household-ledger/internal/lib/password"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin"
)

var defaultAdminHash = sync.OnceValue(func() string {
	h, err := password.GetHash(defaultAdminPassword)
	if err != nil {
		panic(err)
	}
	return h
})

// DefaultSettings списки настроек для нового пользователя.
func DefaultSettings() Settings {
	return Settings{
		Categories: []string{
			"Alimentação", "Carro", "Transporte", "Manutenção", "Farmácia",
			"Outros", "Pets", "Hotel", "Escritório", "Fornecedor",
		},
		Suppliers: []string{
			"Amoedo", "Carrefour", "Detail Wash", "Droga Raia", "Hortfruti",
			"Kalunga", "Lave Bem", "Outros", "Pacheco", "PetChic",
			"Posto hum", "Prezunic", "RM água", "Venancio", "Zona Sul",
		},
		PaymentMethods: []string{"Cartão de Crédito", "Reembolso", "Conta Corrente", "Outros"},
		Years:          []int{2024, 2025, 2026},
	}
}

// DefaultMaintenanceTypes типы обслуживания по умолчанию.
func DefaultMaintenanceTypes() []string {
	return []string{
		"Pintura", "Hidráulica", "Elétrica", "Ar-condicionado", "Dedetização",
		"Limpeza", "Reforma", "Manutenção preventiva", "Instalação", "Reparo",
	}
}

// DefaultMaintenanceAreas помещения по умолчанию.
func DefaultMaintenanceAreas() []string {
	return []string{
		"Sala", "Cozinha", "Banheiro", "Quarto", "Garagem", "Área externa",
		"Piscina", "Jardim", "Lavanderia", "Escritório", "Geral",
	}
}

// DefaultUsers единственный администратор admin/admin; пароль хранится как bcrypt-хэш.
func DefaultUsers() []SystemUser {
	return []SystemUser{{
		Username:     defaultAdminUsername,
		Name:         "Administrador",
		PasswordHash: defaultAdminHash(),
		Role:         RoleAdmin,
	}}
}
