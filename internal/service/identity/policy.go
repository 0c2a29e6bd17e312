package identity

import "github.com/vladislavdragonenkov/storefront/internal/domain"

// Операции API, для которых действуют особые правила доступа.
const (
	OperationListProducts       = "ListProducts"
	OperationCreateProduct      = "CreateProduct"
	OperationUpdateProductPrice = "UpdateProductPrice"
	OperationDeactivateProduct  = "DeactivateProduct"
	OperationReactivateProduct  = "ReactivateProduct"
	OperationAttachProductImage = "AttachProductImage"
)

// Policy сопоставляет операции API с допустимыми ролями.
// Операции без явного правила доступны любой установленной личности.
type Policy struct {
	public   map[string]bool
	rules    map[string][]domain.Role
	fallback []domain.Role
}

// DefaultPolicy: каталог меняет только ADMIN, список товаров открыт всем,
// остальное требует ADMIN или USER.
func DefaultPolicy() Policy {
	admin := []domain.Role{domain.RoleAdmin}
	return Policy{
		public: map[string]bool{OperationListProducts: true},
		rules: map[string][]domain.Role{
			OperationCreateProduct:      admin,
			OperationUpdateProductPrice: admin,
			OperationDeactivateProduct:  admin,
			OperationReactivateProduct:  admin,
			OperationAttachProductImage: admin,
		},
		fallback: []domain.Role{domain.RoleAdmin, domain.RoleUser},
	}
}

// Public сообщает, что операция не требует токена.
func (p Policy) Public(operation string) bool {
	return p.public[operation]
}

// Roles возвращает роли, допустимые для операции.
func (p Policy) Roles(operation string) []domain.Role {
	if roles, ok := p.rules[operation]; ok {
		return roles
	}
	return p.fallback
}
