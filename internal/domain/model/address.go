package model

// 配送先住所（ordersのshipping_address列にJSONで保存）
type Address struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Street    string `json:"street,omitempty"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode,omitempty"`
	Country   string `json:"country,omitempty"`

	//電話番号（受け取り通知SMSの宛先）
	Phone string `json:"phone,omitempty"`
}
