package domain

// Built-in content served whenever the store has nothing for a section or cannot be read.
// Each call returns a fresh copy.

func DefaultServices() []Service {
	return []Service{
		{
			ID:          "regular-cleaning",
			Title:       "Підтримуюче прибирання",
			Description: "Регулярне прибирання квартир і будинків.",
			Features:    []string{"Вологе прибирання підлоги", "Прибирання кухні та санвузла", "Видалення пилу з поверхонь"},
			Icon:        "home",
		},
		{
			ID:          "deep-cleaning",
			Title:       "Генеральне прибирання",
			Description: "Ретельне прибирання кожного куточка.",
			Features:    []string{"Миття вікон", "Чищення техніки", "Прибирання важкодоступних місць"},
			Icon:        "sparkles",
		},
		{
			ID:          "after-renovation",
			Title:       "Прибирання після ремонту",
			Description: "Видалення будівельного пилу та залишків матеріалів.",
			Features:    []string{"Видалення будівельного пилу", "Миття вікон і рам", "Очищення плитки від затирки"},
			Icon:        "hammer",
		},
		{
			ID:          "office-cleaning",
			Title:       "Прибирання офісів",
			Description: "Чистота робочих приміщень за графіком.",
			Features:    []string{"Прибирання робочих місць", "Санітарна обробка", "Винесення сміття"},
			Icon:        "building",
		},
	}
}

func DefaultContacts() Contacts {
	return Contacts{
		Phone:        "+380991234567",
		Email:        "info@chystahata.com.ua",
		Address:      "м. Київ",
		WorkingHours: "Пн-Нд: 8:00 - 20:00",
	}
}

func DefaultBranding() Branding {
	return Branding{
		SiteName:     "Чиста Хата",
		Tagline:      "Професійне прибирання у Києві",
		PrimaryColor: "#2563eb",
	}
}

func DefaultSocialMedia() SocialMedia {
	return SocialMedia{}
}

func DefaultHeroImages() HeroImages {
	return HeroImages{Images: []HeroImage{}}
}

func DefaultBenefits() Benefits {
	return Benefits{
		Title: "Чому обирають нас",
		Items: []Benefit{
			{ID: "quality", Title: "Гарантія якості", Description: "Безкоштовно переробимо, якщо щось не сподобається.", Icon: "shield"},
			{ID: "eco", Title: "Безпечні засоби", Description: "Використовуємо сертифіковану професійну хімію.", Icon: "leaf"},
			{ID: "time", Title: "Пунктуальність", Description: "Приїжджаємо вчасно та працюємо за графіком.", Icon: "clock"},
		},
	}
}

func DefaultDiscount() Discount {
	return Discount{Enabled: false}
}

func DefaultPricing() Pricing {
	return Pricing{
		Categories: []PricingCategory{
			{
				ID:    "apartments",
				Title: "Квартири",
				Items: []PriceItem{
					{ID: "regular", Name: "Підтримуюче прибирання", Price: 40, Unit: "грн/м²"},
					{ID: "deep", Name: "Генеральне прибирання", Price: 70, Unit: "грн/м²"},
					{ID: "renovation", Name: "Прибирання після ремонту", Price: 90, Unit: "грн/м²"},
				},
			},
			{
				ID:    "extra",
				Title: "Додаткові послуги",
				Items: []PriceItem{
					{ID: "windows", Name: "Миття вікна", Price: 150, Unit: "грн/шт"},
					{ID: "fridge", Name: "Миття холодильника", Price: 300, Unit: "грн"},
					{ID: "oven", Name: "Чищення духовки", Price: 350, Unit: "грн"},
				},
			},
		},
	}
}
