package domain

import "time"

// CategoryNameMax bounds category names.
const CategoryNameMax = 50

// Category is a node of the category tree. Products are only listed while
// their category is active.
type Category struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Slug      string      `json:"slug"`
	ParentID  *int64      `json:"parent_id,omitempty"`
	IsActive  bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Children  []*Category `json:"children,omitempty"`
}

// CreateCategoryInput holds the parameters for creating a category.
type CreateCategoryInput struct {
	Name     string `json:"name" validate:"required,min=1,max=50"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	IsActive *bool  `json:"is_active"`
}

// UpdateCategoryInput holds the parameters for updating a category.
type UpdateCategoryInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=50"`
	ParentID *int64  `json:"parent_id" validate:"omitempty,gt=0"`
	IsActive *bool   `json:"is_active"`
}

// BuildTree nests a flat category list by ParentID. Categories whose parent
// is not in the list become roots. Order within each level follows the
// input order.
func BuildTree(flat []Category) []*Category {
	nodes := make(map[int64]*Category, len(flat))
	for i := range flat {
		c := flat[i]
		c.Children = nil
		nodes[c.ID] = &c
	}

	roots := make([]*Category, 0)
	for i := range flat {
		node := nodes[flat[i].ID]
		if node.ParentID != nil {
			if parent, ok := nodes[*node.ParentID]; ok && parent.ID != node.ID {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
