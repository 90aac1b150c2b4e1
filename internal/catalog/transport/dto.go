package transport

type ListProductsQuery struct {
	Page     int    `query:"page"`
	Size     int    `query:"size"`
	Category string `query:"category"`
}

type CreateProductRequest struct {
	Name        string   `json:"name"        validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Price       int64    `json:"price"       validate:"gte=0,max=1000000000000"`
	Category    string   `json:"category"    validate:"required"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	Fabric      string   `json:"fabric"`
	Images      []string `json:"images"      validate:"dive,url"`
	Stock       int      `json:"stock"       validate:"gte=0"`
	IsInStock   *bool    `json:"is_in_stock"`
}

type PatchProductRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *int64   `json:"price"       validate:"omitempty,gte=0,max=1000000000000"`
	Category    *string  `json:"category"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	Fabric      *string  `json:"fabric"`
	Images      []string `json:"images"      validate:"omitempty,dive,url"`
	Stock       *int     `json:"stock"       validate:"omitempty,gte=0"`
	IsInStock   *bool    `json:"is_in_stock"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}
